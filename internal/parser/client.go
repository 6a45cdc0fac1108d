package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/smartdevs17/fbft-benchlogs/internal/models"
	"github.com/smartdevs17/fbft-benchlogs/pkg/utils"
)

var (
	clientSizeRe  = regexp.MustCompile(`Transactions size: ([0-9]+)`)
	clientRateRe  = regexp.MustCompile(`Transactions rate: ([0-9]+)`)
	clientStartRe = regexp.MustCompile(`\[(.*?)\].*Start sending transactions`)
	clientSendRe  = regexp.MustCompile(`\[(.*?)\] .*Sending transaction number ([0-9]+) with hash (\S+) of size ([0-9]+)`)
	clientSeenRe  = regexp.MustCompile(`\[(.*?)\] .*seqnumber: .*, tx hash=(\S+)`)
)

// ParseClientLog builds the transaction timeline of one client. The first
// sighting of a tx hash after submission marks mempool acceptance, the second
// marks finalization; a third is an invariant violation.
func ParseClientLog(raw string) (*models.ClientLog, error) {
	if strings.Contains(raw, "Error") {
		return nil, utils.NewParseError("client panicked")
	}

	size, err := requiredInt(clientSizeRe, raw, "transactions size")
	if err != nil {
		return nil, err
	}
	rate, err := requiredInt(clientRateRe, raw, "transactions rate")
	if err != nil {
		return nil, err
	}
	m := clientStartRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, utils.NewParseError("client log has no start line")
	}
	start, err := ParseLogTimestamp(m[1])
	if err != nil {
		return nil, err
	}

	byNumber := make(map[int]*models.TxLog)
	byHash := make(map[string]*models.TxLog)
	for _, m := range clientSendRe.FindAllStringSubmatch(raw, -1) {
		ts, err := ParseLogTimestamp(m[1])
		if err != nil {
			return nil, err
		}
		number, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, utils.NewParseError("malformed tx number", m[2])
		}
		txSize, err := strconv.Atoi(m[4])
		if err != nil {
			return nil, utils.NewParseError("malformed tx size", m[4])
		}
		tx := &models.TxLog{
			SubmittedAt: ts,
			MempoolAt:   models.UndefinedTimestamp,
			FinalizedAt: models.UndefinedTimestamp,
			TxNumber:    number,
			TxHash:      m[3],
			SizeBytes:   txSize,
		}
		byNumber[number] = tx
		byHash[tx.TxHash] = tx
	}

	type sighting struct {
		at   models.Timestamp
		hash string
	}
	var sightings []sighting
	for _, m := range clientSeenRe.FindAllStringSubmatch(raw, -1) {
		ts, err := ParseLogTimestamp(m[1])
		if err != nil {
			return nil, err
		}
		sightings = append(sightings, sighting{at: ts, hash: m[2]})
	}
	sort.SliceStable(sightings, func(i, j int) bool { return sightings[i].at < sightings[j].at })

	for _, s := range sightings {
		tx, ok := byHash[s.hash]
		if !ok {
			continue
		}
		switch {
		case !tx.InMempool():
			tx.MempoolAt = s.at
		case !tx.Finalized():
			tx.FinalizedAt = s.at
		default:
			return nil, utils.NewInvariantError("tx seen more than twice", s.hash)
		}
	}

	numbers := make([]int, 0, len(byNumber))
	for n := range byNumber {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	txs := make([]*models.TxLog, len(numbers))
	for i, n := range numbers {
		txs[i] = byNumber[n]
	}

	return &models.ClientLog{
		Txs:   txs,
		Start: start,
		Size:  size,
		Rate:  float64(rate),
	}, nil
}

func requiredInt(re *regexp.Regexp, raw, what string) (int, error) {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return 0, utils.NewParseError(fmt.Sprintf("client log has no %s", what))
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, utils.NewParseError(fmt.Sprintf("malformed %s", what), m[1])
	}
	return n, nil
}
