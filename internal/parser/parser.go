// File: internal/parser/parser.go
package parser

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/smartdevs17/fbft-benchlogs/internal/models"
	"github.com/smartdevs17/fbft-benchlogs/internal/participant"
	"github.com/smartdevs17/fbft-benchlogs/pkg/utils"
)

const maxLineSize = 16 * 1024 * 1024

// eventRule recognizes one event kind. marker is a cheap substring test run
// before the regular expression.
type eventRule struct {
	marker string
	kind   models.EventKind
	re     *regexp.Regexp
	build  func(m []string, line int) (models.LogEvent, error)
}

var (
	receiveRequestRe = regexp.MustCompile(`\[(.*?)\] .* applying <RECEIVE_REQUEST, T=([0-9]+), H=([0-9]+), R=([0-9]+)`)
	receiveBlockRe   = regexp.MustCompile(`\[(.*?)\] .* applying <RECEIVE_BLOCK, H=([0-9]+), R=([0-9]+)`)
	startSubmitRe    = regexp.MustCompile(`\[(.*?)\] .* R([0-9]+) \S*SubmitBlock submitting block at height ([0-9]+) block size: ([0-9]+) bytes, block hash: ([0-9a-fA-F]+)`)
	endSubmitRe      = regexp.MustCompile(`\[(.*?)\] .* R([0-9]+) \S*SubmitBlock for block at height ([0-9]+), block hash: ([0-9a-fA-F]+)\. Result = (.*) \(null means ok\)`)

	killedByMistakeRe = regexp.MustCompile(`\[ERROR\] Killed replica R([0-9]+) at view V=([0-9]+)`)
	killedByFaultRe   = regexp.MustCompile(`\[INFO\] Killed replica R([0-9]+) at view V=([0-9]+)`)
)

func actionRe(action string) *regexp.Regexp {
	return regexp.MustCompile(`\[(.*?)\] .* applying <` + action +
		`, Request=\(H=([0-9]+), T=([0-9]+)\), V=([0-9]+), N=([0-9]+), R=([0-9]+)>`)
}

// eventRules is tried in order; the first rule whose marker occurs in a line
// decides how the line is parsed.
var eventRules = []eventRule{
	{marker: "applying <RECEIVE_REQUEST", kind: models.KindReceiveRequest, re: receiveRequestRe, build: buildReceiveRequest},
	{marker: "applying <EXECUTE", kind: models.KindExecute, re: actionRe("EXECUTE"), build: buildAction(models.KindExecute)},
	{marker: "applying <RECEIVE_BLOCK", kind: models.KindReceiveBlock, re: receiveBlockRe, build: buildReceiveBlock},
	{marker: "applying <SEND_PRE_PREPARE", kind: models.KindSendPrePrepare, re: actionRe("SEND_PRE_PREPARE"), build: buildAction(models.KindSendPrePrepare)},
	{marker: "applying <ROAST_INIT", kind: models.KindRoastInit, re: actionRe("ROAST_INIT"), build: buildAction(models.KindRoastInit)},
	{marker: "SubmitBlock submitting", kind: models.KindStartSubmitBlock, re: startSubmitRe, build: buildStartSubmit},
	{marker: "SubmitBlock for block at height", kind: models.KindEndSubmitBlock, re: endSubmitRe, build: buildEndSubmit},
}

// ParseParticipantLog extracts the events of one replica log.
// A replica that panicked or was killed outside of fault injection makes the
// whole run unusable and yields a parse error.
func ParseParticipantLog(id int, raw string) (*participant.Log, error) {
	var (
		events []models.LogEvent
		killed bool
	)

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if strings.Contains(line, "panic") {
			return nil, utils.NewParseError("node panicked", fmt.Sprintf("participant=%d line=%d", id, lineNo))
		}
		if m := killedByMistakeRe.FindStringSubmatch(line); m != nil {
			return nil, utils.NewParseError(fmt.Sprintf("node R%s killed by mistake at view V=%s", m[1], m[2]))
		}
		if !killed && killedByFaultRe.MatchString(line) {
			killed = true
		}

		ev, err := parseLine(line, lineNo)
		if err != nil {
			return nil, fmt.Errorf("participant %d: %w", id, err)
		}
		if ev != nil {
			events = append(events, ev)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, utils.NewParseError("failed to read replica log", err.Error())
	}

	return participant.NewLog(id, raw, events, killed)
}

// parseLine returns nil when the line carries no recognized event.
func parseLine(line string, lineNo int) (models.LogEvent, error) {
	for _, rule := range eventRules {
		if !strings.Contains(line, rule.marker) {
			continue
		}
		m := rule.re.FindStringSubmatch(line)
		if m == nil {
			return nil, utils.NewParseError(fmt.Sprintf("malformed %s line", rule.kind), fmt.Sprintf("line %d: %s", lineNo, line))
		}
		return rule.build(m, lineNo)
	}
	return nil, nil
}

// fields converts regexp captures; the first failure sticks.
type fields struct {
	m    []string
	line int
	err  error
}

func (f *fields) timestamp(i int) models.Timestamp {
	if f.err != nil {
		return 0
	}
	ts, err := ParseLogTimestamp(f.m[i])
	if err != nil {
		f.err = fmt.Errorf("line %d: %w", f.line, err)
	}
	return ts
}

func (f *fields) int(i int) int {
	if f.err != nil {
		return 0
	}
	n, err := strconv.Atoi(f.m[i])
	if err != nil {
		f.err = utils.NewParseError("malformed number", fmt.Sprintf("line %d: %q", f.line, f.m[i]))
	}
	return n
}

func (f *fields) hash(i int) models.BlockHash {
	if f.err != nil {
		return models.BlockHash{}
	}
	h, err := utils.ParseBlockHash(f.m[i])
	if err != nil {
		f.err = utils.NewParseError("malformed block hash", fmt.Sprintf("line %d: %q", f.line, f.m[i]))
	}
	return models.BlockHash{Hash: h, Raw: f.m[i]}
}

func buildReceiveRequest(m []string, line int) (models.LogEvent, error) {
	f := &fields{m: m, line: line}
	ev := models.ReceiveRequest{
		Header: models.Header{
			LogTime:     f.timestamp(1),
			BlockHeight: f.int(3),
			Participant: f.int(4),
		},
		BlockTimestamp: models.Timestamp(f.int(2)),
	}
	return ev, f.err
}

func buildReceiveBlock(m []string, line int) (models.LogEvent, error) {
	f := &fields{m: m, line: line}
	ev := models.ReceiveBlock{
		Header: models.Header{
			LogTime:     f.timestamp(1),
			BlockHeight: f.int(2),
			Participant: f.int(3),
		},
	}
	return ev, f.err
}

func buildAction(kind models.EventKind) func(m []string, line int) (models.LogEvent, error) {
	return func(m []string, line int) (models.LogEvent, error) {
		f := &fields{m: m, line: line}
		ev := models.ProtocolAction{
			Header: models.Header{
				LogTime:     f.timestamp(1),
				BlockHeight: f.int(2),
				Participant: f.int(6),
			},
			Action:         kind,
			BlockTimestamp: models.Timestamp(f.int(3)),
			View:           f.int(4),
			SeqNumber:      f.int(5),
		}
		return ev, f.err
	}
}

func buildStartSubmit(m []string, line int) (models.LogEvent, error) {
	f := &fields{m: m, line: line}
	ev := models.StartSubmitBlock{
		Header: models.Header{
			LogTime:     f.timestamp(1),
			Participant: f.int(2),
			BlockHeight: f.int(3),
		},
		BlockSize: f.int(4),
		BlockHash: f.hash(5),
	}
	return ev, f.err
}

func buildEndSubmit(m []string, line int) (models.LogEvent, error) {
	f := &fields{m: m, line: line}
	ev := models.EndSubmitBlock{
		Header: models.Header{
			LogTime:     f.timestamp(1),
			Participant: f.int(2),
			BlockHeight: f.int(3),
		},
		BlockHash: f.hash(4),
		Result:    strings.TrimSpace(m[5]),
	}
	return ev, f.err
}
