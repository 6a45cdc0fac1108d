package models

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Height is the sequence number of a committed block
type Height = int

// Timestamp is a POSIX time in (fractional) seconds
type Timestamp = float64

// EventKind enumerates the replica log events the analyzer understands
type EventKind int

const (
	KindReceiveRequest EventKind = iota
	KindReceiveBlock
	KindSendPrePrepare
	KindExecute
	KindRoastInit
	KindStartSubmitBlock
	KindEndSubmitBlock
)

// AllKinds lists every event kind in declaration order
var AllKinds = []EventKind{
	KindReceiveRequest,
	KindReceiveBlock,
	KindSendPrePrepare,
	KindExecute,
	KindRoastInit,
	KindStartSubmitBlock,
	KindEndSubmitBlock,
}

func (k EventKind) String() string {
	switch k {
	case KindReceiveRequest:
		return "ReceiveRequest"
	case KindReceiveBlock:
		return "ReceiveBlock"
	case KindSendPrePrepare:
		return "SendPrePrepare"
	case KindExecute:
		return "Execute"
	case KindRoastInit:
		return "RoastInit"
	case KindStartSubmitBlock:
		return "StartSubmitBlock"
	case KindEndSubmitBlock:
		return "EndSubmitBlock"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// LogEvent is one line of a replica log that the analyzer recognized
type LogEvent interface {
	Kind() EventKind
	Height() Height
	LogTimestamp() Timestamp
	ParticipantID() int
}

// Header carries the fields shared by every event
type Header struct {
	LogTime     Timestamp `json:"log_timestamp"`
	Participant int       `json:"participant_id"`
	BlockHeight Height    `json:"block_height"`
}

func (h Header) Height() Height          { return h.BlockHeight }
func (h Header) LogTimestamp() Timestamp { return h.LogTime }
func (h Header) ParticipantID() int      { return h.Participant }

// ReceiveRequest is logged when a replica accepts a block request
type ReceiveRequest struct {
	Header
	BlockTimestamp Timestamp `json:"block_timestamp"`
}

func (ReceiveRequest) Kind() EventKind { return KindReceiveRequest }

// TrueRequestTime is the later of the request's own timestamp and the time it was logged.
func (e ReceiveRequest) TrueRequestTime() Timestamp {
	if e.BlockTimestamp > e.LogTime {
		return e.BlockTimestamp
	}
	return e.LogTime
}

// ReceiveBlock is logged when a replica learns about a new block
type ReceiveBlock struct {
	Header
}

func (ReceiveBlock) Kind() EventKind { return KindReceiveBlock }

// ProtocolAction covers the request-bearing FBFT actions:
// SEND_PRE_PREPARE, EXECUTE and ROAST_INIT.
type ProtocolAction struct {
	Header
	Action         EventKind `json:"action"`
	BlockTimestamp Timestamp `json:"block_timestamp"`
	View           int       `json:"view"`
	SeqNumber      int       `json:"seq_number"`
}

func (e ProtocolAction) Kind() EventKind { return e.Action }

// BlockHash is a block hash as logged by a replica together with its
// 32-byte left-padded value.
type BlockHash struct {
	Hash common.Hash `json:"hash"`
	Raw  string      `json:"raw"`
}

// String returns the hash text exactly as it appeared in the log
func (h BlockHash) String() string { return h.Raw }

// StartSubmitBlock is logged before a replica submits a block to bitcoind
type StartSubmitBlock struct {
	Header
	BlockSize int       `json:"block_size"`
	BlockHash BlockHash `json:"block_hash"`
}

func (StartSubmitBlock) Kind() EventKind { return KindStartSubmitBlock }

// EndSubmitBlock is logged when bitcoind answered a block submission
type EndSubmitBlock struct {
	Header
	BlockHash BlockHash `json:"block_hash"`
	Result    string    `json:"result"`
}

func (EndSubmitBlock) Kind() EventKind { return KindEndSubmitBlock }

// Succeeded reports whether bitcoind accepted the block
func (e EndSubmitBlock) Succeeded() bool {
	return e.Result == "" || e.Result == "null"
}

// EffectiveTimestamp is the time used when comparing observations of the
// same event across replicas: the true request time for requests, the log
// time for everything else.
func EffectiveTimestamp(e LogEvent) Timestamp {
	if rr, ok := e.(ReceiveRequest); ok {
		return rr.TrueRequestTime()
	}
	return e.LogTimestamp()
}
