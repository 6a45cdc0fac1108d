package processor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/fbft-benchlogs/internal/config"
	"github.com/smartdevs17/fbft-benchlogs/internal/models"
	"github.com/smartdevs17/fbft-benchlogs/internal/parser"
	"github.com/smartdevs17/fbft-benchlogs/internal/participant"
)

// The fixture run has four heights; height h is requested at
// base = 100 + 10*(h-1) and executed at base + 2 + h/2. With a 10s warm-up
// only heights 2..4 count.
const fixtureHeights = 4

func fixtureParams() *config.BenchParameters {
	return &config.BenchParameters{
		Nodes:           2,
		Clients:         1,
		WarmupDuration:  10,
		Rate:            5,
		TxSize:          250,
		TargetBlockTime: 10,
		Duration:        60,
		Runs:            1,
	}
}

func blockBase(h int) float64 { return 100 + 10*float64(h-1) }

func executeAt(h int) float64 { return blockBase(h) + 2 + float64(h)/2 }

func hdr(participantID, h int, at float64) models.Header {
	return models.Header{LogTime: at, Participant: participantID, BlockHeight: h}
}

func primaryEvents(participantID int, heights ...int) []models.LogEvent {
	var events []models.LogEvent
	for _, h := range heights {
		base := blockBase(h)
		exec := executeAt(h)
		events = append(events,
			models.ReceiveRequest{Header: hdr(participantID, h, base), BlockTimestamp: base},
			models.ProtocolAction{Header: hdr(participantID, h, base+1), Action: models.KindSendPrePrepare, BlockTimestamp: base, SeqNumber: h},
			models.ProtocolAction{Header: hdr(participantID, h, base+2), Action: models.KindRoastInit, BlockTimestamp: base, SeqNumber: h},
			models.ProtocolAction{Header: hdr(participantID, h, exec), Action: models.KindExecute, BlockTimestamp: base, SeqNumber: h},
			models.StartSubmitBlock{Header: hdr(participantID, h, exec+0.5), BlockSize: 1000 * h},
			models.EndSubmitBlock{Header: hdr(participantID, h, exec+1.5), Result: "null"},
		)
	}
	return events
}

func backupEvents(participantID int, heights ...int) []models.LogEvent {
	var events []models.LogEvent
	for _, h := range heights {
		base := blockBase(h)
		events = append(events,
			models.ReceiveRequest{Header: hdr(participantID, h, base+0.5), BlockTimestamp: base},
			models.ReceiveBlock{Header: hdr(participantID, h, executeAt(h)+2)},
		)
	}
	return events
}

func allHeights() []int {
	heights := make([]int, fixtureHeights)
	for i := range heights {
		heights[i] = i + 1
	}
	return heights
}

func newLog(t *testing.T, id int, killed bool, events []models.LogEvent) *participant.Log {
	t.Helper()
	l, err := participant.NewLog(id, "", events, killed)
	require.NoError(t, err)
	return l
}

func fixtureResult(t *testing.T) *RunResult {
	t.Helper()
	logs := participant.NewLogSet(
		newLog(t, 0, false, primaryEvents(0, allHeights()...)),
		newLog(t, 1, false, backupEvents(1, allHeights()...)),
	)
	clients := []*models.ClientLog{{Rate: 5, Size: 250, Txs: []*models.TxLog{
		{TxNumber: 1, TxHash: "aa", SubmittedAt: 101, MempoolAt: 102, FinalizedAt: 113},
		{TxNumber: 2, TxHash: "bb", SubmittedAt: 103, MempoolAt: models.UndefinedTimestamp, FinalizedAt: models.UndefinedTimestamp},
	}}}
	return NewRunResult(fixtureParams(), logs, clients)
}

func fixtureMetrics(t *testing.T) *RunMetrics {
	t.Helper()
	m, err := fixtureResult(t).Metrics()
	require.NoError(t, err)
	return m
}

// Run directories on disk, in the replicas' own log format.

func stamp(ts float64) string {
	return "[" + parser.FormatLogTimestamp(ts) + "] "
}

func nodeLog(r int, primary bool) string {
	var b strings.Builder
	for _, h := range allHeights() {
		base := blockBase(h)
		exec := executeAt(h)
		hash := fmt.Sprintf("%064x", h)
		if !primary {
			fmt.Fprintf(&b, "%s[INFO] R%d applying <RECEIVE_REQUEST, T=%d, H=%d, R=%d>\n", stamp(base+0.5), r, int(base), h, r)
			fmt.Fprintf(&b, "%s[INFO] R%d applying <RECEIVE_BLOCK, H=%d, R=%d>\n", stamp(exec+2), r, h, r)
			continue
		}
		fmt.Fprintf(&b, "%s[INFO] R%d applying <RECEIVE_REQUEST, T=%d, H=%d, R=%d>\n", stamp(base), r, int(base), h, r)
		for i, action := range []string{"SEND_PRE_PREPARE", "ROAST_INIT"} {
			fmt.Fprintf(&b, "%s[INFO] R%d applying <%s, Request=(H=%d, T=%d), V=0, N=%d, R=%d>\n",
				stamp(base+float64(i+1)), r, action, h, int(base), h, r)
		}
		fmt.Fprintf(&b, "%s[INFO] R%d applying <EXECUTE, Request=(H=%d, T=%d), V=0, N=%d, R=%d>\n",
			stamp(exec), r, h, int(base), h, r)
		fmt.Fprintf(&b, "%s[INFO] R%d BitcoinBlockchain::SubmitBlock submitting block at height %d block size: %d bytes, block hash: %s\n",
			stamp(exec+0.5), r, h, 1000*h, hash)
		fmt.Fprintf(&b, "%s[INFO] R%d BitcoinBlockchain::SubmitBlock for block at height %d, block hash: %s. Result = null (null means ok)\n",
			stamp(exec+1.5), r, h, hash)
	}
	return b.String()
}

func clientLog() string {
	return stamp(90) + "[INFO] Transactions size: 250 B\n" +
		stamp(90) + "[INFO] Transactions rate: 5 tx/s\n" +
		stamp(95) + "[INFO] Start sending transactions\n" +
		stamp(101) + "[INFO] Sending transaction number 1 with hash aa of size 250\n" +
		stamp(102) + "[DEBUG] seqnumber: 1, tx hash=aa\n" +
		stamp(113) + "[DEBUG] seqnumber: 2, tx hash=aa\n"
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// writeRunDir lays out a run directory the way the orchestrator does
func writeRunDir(t *testing.T, dir string, params *config.BenchParameters) {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	writeFile(t, filepath.Join(dir, config.DefaultBenchParametersFilename), string(raw))
	writeFile(t, filepath.Join(dir, "node0", "miner_logs.txt"), nodeLog(0, true))
	writeFile(t, filepath.Join(dir, "node1", "miner_logs.txt"), nodeLog(1, false))
	for c := 0; c < params.Clients; c++ {
		writeFile(t, filepath.Join(dir, fmt.Sprintf("client%d", c), "client_logs.txt"), clientLog())
	}
}
