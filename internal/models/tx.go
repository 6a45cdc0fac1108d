package models

// UndefinedTimestamp marks a transaction milestone that was never observed
const UndefinedTimestamp Timestamp = -1

// TxLog tracks one transaction submitted by a client
type TxLog struct {
	SubmittedAt Timestamp `json:"submitted_at"`
	MempoolAt   Timestamp `json:"mempool_at"`
	FinalizedAt Timestamp `json:"finalized_at"`
	TxNumber    int       `json:"tx_number"`
	TxHash      string    `json:"tx_hash"`
	SizeBytes   int       `json:"size_bytes"`
}

// InMempool reports whether the transaction was seen entering the mempool
func (t *TxLog) InMempool() bool { return t.MempoolAt != UndefinedTimestamp }

// Finalized reports whether the transaction was seen in a block
func (t *TxLog) Finalized() bool { return t.FinalizedAt != UndefinedTimestamp }

// ClientLog is everything extracted from one client's log
type ClientLog struct {
	Txs   []*TxLog  `json:"txs"` // ordered by tx number
	Start Timestamp `json:"start"`
	Size  int       `json:"size"`
	Rate  float64   `json:"rate"`
}

// FinalizedCount returns how many of the client's transactions made it into a block
func (c *ClientLog) FinalizedCount() int {
	n := 0
	for _, tx := range c.Txs {
		if tx.Finalized() {
			n++
		}
	}
	return n
}
