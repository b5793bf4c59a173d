package engine

import (
	"database/sql"
	"fmt"
	"math"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"go.uber.org/zap"
)

// DecisionJournal is the signal log of backtest runs.
// It records every replayed step in an in-memory DuckDB database that lives as long as the engine.
type DecisionJournal struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDecisionJournal creates a new, empty journal.
func NewDecisionJournal(logger *logger.Logger) (*DecisionJournal, error) {
	// Create an in-memory DuckDB database
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))

		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection to ensure database is properly initialized
	if err := db.Ping(); err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		db.Close()

		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	journal := &DecisionJournal{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := journal.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return journal, nil
}

// Record appends one step of a run.
func (j *DecisionJournal) Record(runID string, symbol string, step types.BacktestStep) error {
	if j == nil || j.db == nil {
		return fmt.Errorf("decision journal or database is nil")
	}

	var nextID int

	err := j.db.QueryRow("SELECT nextval('decision_id_seq')").Scan(&nextID)
	if err != nil {
		return fmt.Errorf("failed to get next ID from sequence: %w", err)
	}

	forecast := sql.NullFloat64{Float64: step.Forecast, Valid: !math.IsNaN(step.Forecast)}

	_, err = j.sq.
		Insert("decisions").
		Columns("id", "run_id", "symbol", "step", "date", "forecast", "signal", "cause", "reason").
		Values(nextID, runID, symbol, step.Index, step.Date, forecast, string(step.Signal), string(step.Cause), step.Reason).
		RunWith(j.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert decision: %w", err)
	}

	return nil
}

// Steps returns the steps of a run in step order.
func (j *DecisionJournal) Steps(runID string) ([]types.BacktestStep, error) {
	if j == nil || j.db == nil {
		return nil, fmt.Errorf("decision journal or database is nil")
	}

	rows, err := j.sq.
		Select("step", "date", "forecast", "signal", "cause", "reason").
		From("decisions").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("step ASC").
		RunWith(j.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var steps []types.BacktestStep

	for rows.Next() {
		var step types.BacktestStep

		var forecast sql.NullFloat64

		var signal, cause string

		if err := rows.Scan(&step.Index, &step.Date, &forecast, &signal, &cause, &step.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}

		step.Signal = types.SignalType(signal)
		step.Cause = types.HoldCause(cause)
		step.Forecast = math.NaN()

		if forecast.Valid {
			step.Forecast = forecast.Float64
		}

		steps = append(steps, step)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decisions: %w", err)
	}

	return steps, nil
}

// Counts returns the number of steps per signal of a run.
func (j *DecisionJournal) Counts(runID string) (map[types.SignalType]int, error) {
	if j == nil || j.db == nil {
		return nil, fmt.Errorf("decision journal or database is nil")
	}

	rows, err := j.sq.
		Select("signal", "COUNT(*)").
		From("decisions").
		Where(squirrel.Eq{"run_id": runID}).
		GroupBy("signal").
		RunWith(j.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to count decisions: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.SignalType]int)

	for rows.Next() {
		var signal string

		var count int

		if err := rows.Scan(&signal, &count); err != nil {
			return nil, fmt.Errorf("failed to scan decision count: %w", err)
		}

		counts[types.SignalType(signal)] = count
	}

	return counts, rows.Err()
}

// Cleanup resets the database state.
func (j *DecisionJournal) Cleanup() error {
	if j == nil || j.db == nil {
		return fmt.Errorf("decision journal or database is nil")
	}

	_, err := j.db.Exec(`
		DROP TABLE IF EXISTS decisions;
		DROP SEQUENCE IF EXISTS decision_id_seq;
	`)
	if err != nil {
		return fmt.Errorf("failed to cleanup decisions table: %w", err)
	}

	return j.initialize()
}

// Close closes the database connection.
func (j *DecisionJournal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}

	return j.db.Close()
}

// initialize creates the necessary tables for storing decisions.
func (j *DecisionJournal) initialize() error {
	if j == nil || j.db == nil {
		return fmt.Errorf("decision journal or database is nil")
	}

	_, err := j.db.Exec(`CREATE SEQUENCE IF NOT EXISTS decision_id_seq`)
	if err != nil {
		return fmt.Errorf("failed to create sequence: %w", err)
	}

	_, err = j.db.Exec(`
		CREATE TABLE IF NOT EXISTS decisions (
			id INTEGER PRIMARY KEY,
			run_id TEXT,
			symbol TEXT,
			step INTEGER,
			date TIMESTAMP,
			forecast DOUBLE,
			signal TEXT,
			cause TEXT,
			reason TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create decisions table: %w", err)
	}

	return nil
}
