package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/paiban/weekplan/pkg/errors"
	"github.com/paiban/weekplan/pkg/model"
	"github.com/paiban/weekplan/pkg/scheduler/solver"
)

// uniqueViolation PostgreSQL 唯一约束冲突
const uniqueViolation = "23505"

// Run 一次求解的记录
type Run struct {
	ID          uuid.UUID       `json:"id"`
	Backend     string          `json:"backend"`
	Status      string          `json:"status"`
	Objective   float64         `json:"objective"`
	Duration    time.Duration   `json:"duration"`
	Variables   int             `json:"variables"`
	Constraints int             `json:"constraints"`
	Message     string          `json:"message,omitempty"`
	Schedule    *model.Schedule `json:"schedule,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// RunFromResult 把流水线结果转换为记录
func RunFromResult(result *solver.Result) (*Run, error) {
	id, err := uuid.Parse(result.RunID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "run_id 不是合法的 uuid")
	}
	return &Run{
		ID:          id,
		Backend:     result.Backend,
		Status:      result.Status.String(),
		Objective:   result.Objective,
		Duration:    result.Duration,
		Variables:   result.Variables,
		Constraints: result.Rows,
		Message:     result.Message,
		Schedule:    result.Schedule,
	}, nil
}

// schema 建表语句，每条单独执行
var schema = []string{
	`CREATE TABLE IF NOT EXISTS weekplan_runs (
		id          UUID PRIMARY KEY,
		backend     TEXT NOT NULL,
		status      TEXT NOT NULL,
		objective   DOUBLE PRECISION NOT NULL DEFAULT 0,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		variables   INTEGER NOT NULL DEFAULT 0,
		constraints INTEGER NOT NULL DEFAULT 0,
		message     TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS weekplan_assignments (
		run_id      UUID NOT NULL REFERENCES weekplan_runs(id) ON DELETE CASCADE,
		position    INTEGER NOT NULL,
		worker      TEXT NOT NULL,
		day         SMALLINT NOT NULL,
		shift_index SMALLINT NOT NULL,
		shift_label TEXT NOT NULL,
		PRIMARY KEY (run_id, position, day)
	)`,
}

// RunRepository 求解记录仓储
type RunRepository struct {
	db TxDB
}

// NewRunRepository 创建求解记录仓储
func NewRunRepository(db TxDB) *RunRepository {
	return &RunRepository{db: db}
}

// EnsureSchema 创建表
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, errors.CodeDatabaseError, "创建表失败")
		}
	}
	return nil
}

// Save 在一个事务中保存记录和排班表。排班表每人 7 行，休息日 shift_index 为 -1。
func (r *RunRepository) Save(ctx context.Context, run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO weekplan_runs (
				id, backend, status, objective, duration_ms,
				variables, constraints, message, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			run.ID, run.Backend, run.Status, run.Objective, run.Duration.Milliseconds(),
			run.Variables, run.Constraints, run.Message, run.CreatedAt,
		)
		if err != nil {
			return err
		}
		if run.Schedule == nil || len(run.Schedule.Rows) == 0 {
			return nil
		}
		return copyAssignments(ctx, tx, run.ID, run.Schedule)
	})
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return errors.Wrap(err, errors.CodeDatabaseError, fmt.Sprintf("求解记录 %s 已存在", run.ID))
		}
		if errors.GetCode(err) == errors.CodeDatabaseError {
			return err
		}
		return errors.Wrap(err, errors.CodeDatabaseError, "保存求解记录失败")
	}
	return nil
}

// copyAssignments 使用 COPY 批量写入排班
func copyAssignments(ctx context.Context, tx *sql.Tx, runID uuid.UUID, schedule *model.Schedule) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("weekplan_assignments",
		"run_id", "position", "worker", "day", "shift_index", "shift_label"))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for pos, row := range schedule.Rows {
		for day := 0; day < model.DaysPerWeek; day++ {
			if _, err := stmt.ExecContext(ctx,
				runID.String(), pos, row.Worker, day, row.ShiftIndex[day], row.Shifts[day]); err != nil {
				return err
			}
		}
	}
	_, err = stmt.ExecContext(ctx)
	return err
}

// Get 读取记录和排班表，不存在时返回 nil
func (r *RunRepository) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx, `
		SELECT id, backend, status, objective, duration_ms,
			variables, constraints, message, created_at
		FROM weekplan_runs
		WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "查询求解记录失败")
	}

	schedule, err := r.loadSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Schedule = schedule
	return run, nil
}

// loadSchedule 按员工顺序还原排班表
func (r *RunRepository) loadSchedule(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT position, worker, day, shift_index, shift_label
		FROM weekplan_assignments
		WHERE run_id = $1
		ORDER BY position, day
	`, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "查询排班失败")
	}
	defer rows.Close()

	var schedule *model.Schedule
	last := -1
	for rows.Next() {
		var (
			pos, day, idx int
			worker, label string
		)
		if err := rows.Scan(&pos, &worker, &day, &idx, &label); err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "读取排班失败")
		}
		if day < 0 || day >= model.DaysPerWeek {
			return nil, errors.InvariantViolation(fmt.Sprintf("员工 %s 的星期 %d 越界", worker, day))
		}
		if schedule == nil {
			schedule = &model.Schedule{}
		}
		if pos != last {
			schedule.Rows = append(schedule.Rows, model.NewScheduleRow(worker))
			last = pos
		}
		row := &schedule.Rows[len(schedule.Rows)-1]
		row.ShiftIndex[day] = idx
		row.Shifts[day] = label
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "读取排班失败")
	}
	return schedule, nil
}

// scanRun 扫描一行记录
func scanRun(row Scanner) (*Run, error) {
	var (
		run        Run
		durationMS int64
	)
	err := row.Scan(
		&run.ID, &run.Backend, &run.Status, &run.Objective, &durationMS,
		&run.Variables, &run.Constraints, &run.Message, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return &run, nil
}
