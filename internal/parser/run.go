// File: internal/parser/run.go
package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/smartdevs17/fbft-benchlogs/internal/models"
	"github.com/smartdevs17/fbft-benchlogs/internal/participant"
	"github.com/smartdevs17/fbft-benchlogs/pkg/utils"
)

// Log roles reported to the Recorder
const (
	RoleNode   = "node"
	RoleClient = "client"
)

// Recorder observes parsing. Implementations must be safe for concurrent use.
type Recorder interface {
	RecordLogParsed(role string, duration time.Duration, err error)
	RecordEventsExtracted(kind models.EventKind, count int)
}

type nopRecorder struct{}

func (nopRecorder) RecordLogParsed(string, time.Duration, error) {}
func (nopRecorder) RecordEventsExtracted(models.EventKind, int)  {}

// RunFiles lists the log files of one run directory, sorted by path
type RunFiles struct {
	Directory string
	Nodes     []string
	Clients   []string
}

// FindRunFiles globs the node and client logs of a run directory.
func FindRunFiles(runDirectory, nodeGlob, clientGlob string) (*RunFiles, error) {
	nodes, err := filepath.Glob(filepath.Join(runDirectory, nodeGlob))
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeConfiguration, "Invalid node log pattern", err.Error())
	}
	clients, err := filepath.Glob(filepath.Join(runDirectory, clientGlob))
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeConfiguration, "Invalid client log pattern", err.Error())
	}
	if len(nodes) == 0 {
		return nil, utils.NewParseError("no replica logs found", runDirectory)
	}
	sort.Strings(nodes)
	sort.Strings(clients)
	return &RunFiles{Directory: runDirectory, Nodes: nodes, Clients: clients}, nil
}

// RunLogs is the parsed content of one run directory
type RunLogs struct {
	Participants *participant.LogSet
	Clients      []*models.ClientLog
}

// Pool parses the logs of a run on a bounded number of goroutines.
type Pool struct {
	workers  int
	recorder Recorder
}

// NewPool creates a pool; workers <= 0 means one worker. A nil recorder is allowed.
func NewPool(workers int, recorder Recorder) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Pool{workers: workers, recorder: recorder}
}

// ParseFiles reads and parses every log listed in files.
func (p *Pool) ParseFiles(ctx context.Context, files *RunFiles) (*RunLogs, error) {
	return p.parse(ctx, len(files.Nodes), len(files.Clients),
		func(i int) (string, error) { return readLog(files.Nodes[i]) },
		func(i int) (string, error) { return readLog(files.Clients[i]) })
}

// Parse parses log contents already held in memory.
func (p *Pool) Parse(ctx context.Context, nodeLogs, clientLogs []string) (*RunLogs, error) {
	return p.parse(ctx, len(nodeLogs), len(clientLogs),
		func(i int) (string, error) { return nodeLogs[i], nil },
		func(i int) (string, error) { return clientLogs[i], nil })
}

func (p *Pool) parse(ctx context.Context, nNodes, nClients int, node, client func(int) (string, error)) (*RunLogs, error) {
	logs := make([]*participant.Log, nNodes)
	clients := make([]*models.ClientLog, nClients)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i := 0; i < nNodes; i++ {
		i := i
		g.Go(recovered(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := node(i)
			if err != nil {
				return err
			}
			started := time.Now()
			log, err := ParseParticipantLog(i, raw)
			p.recorder.RecordLogParsed(RoleNode, time.Since(started), err)
			if err != nil {
				return err
			}
			for _, kind := range models.AllKinds {
				p.recorder.RecordEventsExtracted(kind, log.Count(kind))
			}
			logs[i] = log
			return nil
		}))
	}
	for i := 0; i < nClients; i++ {
		i := i
		g.Go(recovered(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := client(i)
			if err != nil {
				return err
			}
			started := time.Now()
			cl, err := ParseClientLog(raw)
			p.recorder.RecordLogParsed(RoleClient, time.Since(started), err)
			if err != nil {
				return fmt.Errorf("client %d: %w", i, err)
			}
			clients[i] = cl
			return nil
		}))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &RunLogs{
		Participants: participant.NewLogSet(logs...),
		Clients:      clients,
	}, nil
}

// recovered turns a panicking task into an internal error carrying the stack.
func recovered(task func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = utils.NewAppError(utils.ErrCodeInternal, "panic while parsing log", fmt.Sprint(r)).WithStackTrace()
			}
		}()
		return task()
	}
}

func readLog(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", utils.NewParseError("failed to read log file", err.Error())
	}
	return string(data), nil
}
