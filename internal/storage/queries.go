package storage

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/fbft-benchlogs/internal/models"
	"github.com/smartdevs17/fbft-benchlogs/pkg/utils"
)

// dialect captures the few differences between the supported databases
type dialect struct {
	name         string
	numberedArgs bool // $1, $2 instead of ?
}

var (
	sqliteDialect   = dialect{name: "sqlite"}
	postgresDialect = dialect{name: "postgres", numberedArgs: true}
)

func (d dialect) rebind(query string) string {
	if !d.numberedArgs {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const runColumns = `id, directory, nodes, clients, faults, target_block_time, rate,
	genesis_hours_in_the_past, tx_size, warmup_duration, execution_time, throughput, blocks,
	latency_mean, latency_std_dev, latency_min, latency_median, latency_max,
	latency_at_fault_height, time_fbft, time_roast, time_bitcoin, client_rate, analyzed_at`

const heightColumns = `run_id, height, block_size, latency, preprepare_latency, time_fbft, time_roast, time_bitcoin`

// sqlStore implements the run queries shared by every driver
type sqlStore struct {
	db      *sql.DB
	dialect dialect
	logger  *logrus.Entry
}

func (s *sqlStore) connected() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}
	return nil
}

// Ping checks database connectivity
func (s *sqlStore) Ping() error {
	if err := s.connected(); err != nil {
		return err
	}
	return s.db.Ping()
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		s.logger.Info("Database connection closed")
		return err
	}
	return nil
}

// SaveRun stores a run and replaces its per-height rows in one transaction.
func (s *sqlStore) SaveRun(ctx context.Context, run *models.RunRecord, heights []*models.HeightRecord) error {
	if err := s.connected(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to begin transaction", err.Error())
	}
	defer tx.Rollback()

	query := s.dialect.rebind(`
		INSERT INTO runs (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			directory = excluded.directory,
			nodes = excluded.nodes,
			clients = excluded.clients,
			faults = excluded.faults,
			target_block_time = excluded.target_block_time,
			rate = excluded.rate,
			genesis_hours_in_the_past = excluded.genesis_hours_in_the_past,
			tx_size = excluded.tx_size,
			warmup_duration = excluded.warmup_duration,
			execution_time = excluded.execution_time,
			throughput = excluded.throughput,
			blocks = excluded.blocks,
			latency_mean = excluded.latency_mean,
			latency_std_dev = excluded.latency_std_dev,
			latency_min = excluded.latency_min,
			latency_median = excluded.latency_median,
			latency_max = excluded.latency_max,
			latency_at_fault_height = excluded.latency_at_fault_height,
			time_fbft = excluded.time_fbft,
			time_roast = excluded.time_roast,
			time_bitcoin = excluded.time_bitcoin,
			client_rate = excluded.client_rate,
			analyzed_at = excluded.analyzed_at
	`)
	_, err = tx.ExecContext(ctx, query,
		run.ID, run.Directory, run.Nodes, run.Clients, run.Faults, run.TargetBlockTime, run.Rate,
		run.GenesisHoursInThePast, run.TxSize, run.WarmupDuration, run.ExecutionTime, run.Throughput, run.Blocks,
		nullFloat(run.LatencyMean), nullFloat(run.LatencyStdDev), nullFloat(run.LatencyMin),
		nullFloat(run.LatencyMedian), nullFloat(run.LatencyMax), run.LatencyAtFaultHeight,
		nullFloat(run.TimeFBFT), nullFloat(run.TimeROAST), nullFloat(run.TimeBitcoin), run.ClientRate,
		run.AnalyzedAt.UnixMilli())
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to save run", err.Error())
	}

	if _, err := tx.ExecContext(ctx, s.dialect.rebind("DELETE FROM run_heights WHERE run_id = ?"), run.ID); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to clear run heights", err.Error())
	}

	stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(`
		INSERT INTO run_heights (`+heightColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to prepare height insert", err.Error())
	}
	defer stmt.Close()

	for _, h := range heights {
		if _, err := stmt.ExecContext(ctx, run.ID, h.Height, h.BlockSize, h.Latency, h.PrePrepareLatency,
			nullFloat(h.TimeFBFT), nullFloat(h.TimeROAST), nullFloat(h.TimeBitcoin)); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase, "Failed to save run height", err.Error())
		}
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to commit run", err.Error())
	}
	s.logger.WithFields(logrus.Fields{"run_id": run.ID, "heights": len(heights)}).Debug("Run saved")
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*models.RunRecord, error) {
	var (
		run                       models.RunRecord
		mean, std, lo, median, hi sql.NullFloat64
		fbft, roast, bitcoin      sql.NullFloat64
		analyzedAt                int64
	)
	err := row.Scan(&run.ID, &run.Directory, &run.Nodes, &run.Clients, &run.Faults, &run.TargetBlockTime, &run.Rate,
		&run.GenesisHoursInThePast, &run.TxSize, &run.WarmupDuration, &run.ExecutionTime, &run.Throughput, &run.Blocks,
		&mean, &std, &lo, &median, &hi,
		&run.LatencyAtFaultHeight, &fbft, &roast, &bitcoin, &run.ClientRate, &analyzedAt)
	if err != nil {
		return nil, err
	}
	run.LatencyMean, run.LatencyStdDev = floatPtr(mean), floatPtr(std)
	run.LatencyMin, run.LatencyMedian, run.LatencyMax = floatPtr(lo), floatPtr(median), floatPtr(hi)
	run.TimeFBFT, run.TimeROAST, run.TimeBitcoin = floatPtr(fbft), floatPtr(roast), floatPtr(bitcoin)
	run.AnalyzedAt = time.UnixMilli(analyzedAt).UTC()
	return &run, nil
}

// GetRun retrieves a run by ID
func (s *sqlStore) GetRun(ctx context.Context, id string) (*models.RunRecord, error) {
	if err := s.connected(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, s.dialect.rebind("SELECT "+runColumns+" FROM runs WHERE id = ?"), id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "Run not found", id)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to get run", err.Error())
	}
	return run, nil
}

// ResolveRunID expands a unique ID prefix to the full run ID
func (s *sqlStore) ResolveRunID(ctx context.Context, prefix string) (string, error) {
	if err := s.connected(); err != nil {
		return "", err
	}
	prefix = strings.ToLower(prefix)
	if prefix == "" || strings.Trim(prefix, "0123456789abcdefx") != "" {
		return "", utils.NewAppError(utils.ErrCodeValidation, "Invalid run ID", prefix)
	}

	rows, err := s.db.QueryContext(ctx,
		s.dialect.rebind("SELECT id FROM runs WHERE id LIKE ? ORDER BY id LIMIT 2"), prefix+"%")
	if err != nil {
		return "", utils.NewAppError(utils.ErrCodeDatabase, "Failed to resolve run ID", err.Error())
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan run ID", err.Error())
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", utils.NewAppError(utils.ErrCodeDatabase, "Failed to resolve run ID", err.Error())
	}

	switch {
	case len(ids) == 0:
		return "", utils.NewAppError(utils.ErrCodeNotFound, "Run not found", prefix)
	case len(ids) > 1 && ids[0] != prefix:
		return "", utils.NewAppError(utils.ErrCodeValidation, "Ambiguous run ID prefix", prefix)
	}
	return ids[0], nil
}

func (s *sqlStore) whereClause(filter models.RunFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Nodes != nil {
		conds = append(conds, "nodes = ?")
		args = append(args, *filter.Nodes)
	}
	if filter.Faults != nil {
		conds = append(conds, "faults = ?")
		args = append(args, *filter.Faults)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// GetRuns lists runs, most recently analyzed first
func (s *sqlStore) GetRuns(ctx context.Context, filter models.RunFilter) ([]*models.RunRecord, error) {
	if err := s.connected(); err != nil {
		return nil, err
	}
	where, args := s.whereClause(filter)
	query := "SELECT " + runColumns + " FROM runs" + where + " ORDER BY analyzed_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query runs", err.Error())
	}
	defer rows.Close()

	var runs []*models.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan run", err.Error())
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRunCount counts runs matching the filter, ignoring pagination
func (s *sqlStore) GetRunCount(ctx context.Context, filter models.RunFilter) (int64, error) {
	if err := s.connected(); err != nil {
		return 0, err
	}
	where, args := s.whereClause(filter)
	var count int64
	if err := s.db.QueryRowContext(ctx, s.dialect.rebind("SELECT COUNT(*) FROM runs"+where), args...).Scan(&count); err != nil {
		return 0, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count runs", err.Error())
	}
	return count, nil
}

// GetHeights returns the per-height rows of a run ordered by height
func (s *sqlStore) GetHeights(ctx context.Context, runID string) ([]*models.HeightRecord, error) {
	if err := s.connected(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		s.dialect.rebind("SELECT "+heightColumns+" FROM run_heights WHERE run_id = ? ORDER BY height"), runID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query run heights", err.Error())
	}
	defer rows.Close()

	var heights []*models.HeightRecord
	for rows.Next() {
		var (
			h                    models.HeightRecord
			fbft, roast, bitcoin sql.NullFloat64
		)
		if err := rows.Scan(&h.RunID, &h.Height, &h.BlockSize, &h.Latency, &h.PrePrepareLatency,
			&fbft, &roast, &bitcoin); err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan run height", err.Error())
		}
		h.TimeFBFT, h.TimeROAST, h.TimeBitcoin = floatPtr(fbft), floatPtr(roast), floatPtr(bitcoin)
		heights = append(heights, &h)
	}
	return heights, rows.Err()
}

// DeleteRun removes a run and its heights
func (s *sqlStore) DeleteRun(ctx context.Context, id string) error {
	if err := s.connected(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to begin transaction", err.Error())
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.dialect.rebind("DELETE FROM run_heights WHERE run_id = ?"), id); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to delete run heights", err.Error())
	}
	res, err := tx.ExecContext(ctx, s.dialect.rebind("DELETE FROM runs WHERE id = ?"), id)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to delete run", err.Error())
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.NewAppError(utils.ErrCodeNotFound, "Run not found", id)
	}
	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to commit run deletion", err.Error())
	}
	return nil
}

func (s *sqlStore) baseStats() (*StorageStats, error) {
	if err := s.connected(); err != nil {
		return nil, err
	}
	stats := &StorageStats{OpenConns: s.db.Stats().OpenConnections}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&stats.TotalRuns); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count runs", err.Error())
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM run_heights").Scan(&stats.TotalHeights); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count run heights", err.Error())
	}
	var latest sql.NullInt64
	if err := s.db.QueryRow("SELECT MAX(analyzed_at) FROM runs").Scan(&latest); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to read latest analysis", err.Error())
	}
	if latest.Valid {
		t := time.UnixMilli(latest.Int64).UTC()
		stats.LatestAnalysis = &t
	}
	return stats, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
