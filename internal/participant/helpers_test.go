package participant

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/fbft-benchlogs/internal/models"
)

func header(participant, height int, at float64) models.Header {
	return models.Header{LogTime: at, Participant: participant, BlockHeight: height}
}

func request(participant, height int, at, blockTs float64) models.ReceiveRequest {
	return models.ReceiveRequest{Header: header(participant, height, at), BlockTimestamp: blockTs}
}

func action(kind models.EventKind, participant, height int, at float64) models.ProtocolAction {
	return models.ProtocolAction{Header: header(participant, height, at), Action: kind, SeqNumber: height}
}

func startSubmit(participant, height int, at float64, size int) models.StartSubmitBlock {
	return models.StartSubmitBlock{Header: header(participant, height, at), BlockSize: size}
}

func endSubmit(participant, height int, at float64) models.EndSubmitBlock {
	return models.EndSubmitBlock{Header: header(participant, height, at), Result: "null"}
}

// phases returns the five boundary events of a height on one replica
func phases(participant, height int, ts ...float64) []models.LogEvent {
	return []models.LogEvent{
		action(models.KindSendPrePrepare, participant, height, ts[0]),
		action(models.KindRoastInit, participant, height, ts[1]),
		action(models.KindExecute, participant, height, ts[2]),
		startSubmit(participant, height, ts[3], 100),
		endSubmit(participant, height, ts[4]),
	}
}

func mustLog(t *testing.T, id int, events ...models.LogEvent) *Log {
	t.Helper()
	l, err := NewLog(id, "", events, false)
	require.NoError(t, err)
	return l
}
