package parser

import (
	"fmt"
	"strings"
)

func logLine(ts float64, body string) string {
	return "[" + FormatLogTimestamp(ts) + "] " + body
}

func requestLine(ts float64, r, h, blockTs int) string {
	return logLine(ts, fmt.Sprintf("[INFO] R%d applying <RECEIVE_REQUEST, T=%d, H=%d, R=%d>", r, blockTs, h, r))
}

func receiveBlockLine(ts float64, r, h int) string {
	return logLine(ts, fmt.Sprintf("[INFO] R%d applying <RECEIVE_BLOCK, H=%d, R=%d>", r, h, r))
}

func actionLine(ts float64, action string, r, h, blockTs, view int) string {
	return logLine(ts, fmt.Sprintf("[INFO] R%d applying <%s, Request=(H=%d, T=%d), V=%d, N=%d, R=%d>",
		r, action, h, blockTs, view, h, r))
}

func startSubmitLine(ts float64, r, h, size int, hash string) string {
	return logLine(ts, fmt.Sprintf("[INFO] R%d BitcoinBlockchain::SubmitBlock submitting block at height %d block size: %d bytes, block hash: %s",
		r, h, size, hash))
}

func endSubmitLine(ts float64, r, h int, hash, result string) string {
	return logLine(ts, fmt.Sprintf("[INFO] R%d BitcoinBlockchain::SubmitBlock for block at height %d, block hash: %s. Result = %s (null means ok)",
		r, h, hash, result))
}

// primaryBlock renders the full life of one block on the primary
func primaryBlock(r, h int, at float64) []string {
	hash := fmt.Sprintf("%064x", h)
	return []string{
		requestLine(at, r, h, int(at)),
		actionLine(at+1, "SEND_PRE_PREPARE", r, h, int(at), 0),
		actionLine(at+2, "ROAST_INIT", r, h, int(at), 0),
		actionLine(at+3, "EXECUTE", r, h, int(at), 0),
		startSubmitLine(at+4, r, h, 250+h, hash),
		endSubmitLine(at+5, r, h, hash, "null"),
	}
}

func joinLines(lines ...[]string) string {
	var all []string
	for _, l := range lines {
		all = append(all, l...)
	}
	return strings.Join(all, "\n") + "\n"
}
