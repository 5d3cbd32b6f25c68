package services

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"greenloop/metrics"
	"greenloop/models"
	"greenloop/verification"

	"github.com/apex/log"
)

// ReportBonusPoints is the fixed award for submitting a waste report.
const ReportBonusPoints = 10

// Collect awards are a uniform random integer in [10, 59].
const (
	collectRewardMin  = 10
	collectRewardSpan = 50
)

// VerifyOutcome is the result of a verification attempt. On a mismatch only
// Result is populated; on a match the award and collection record are set.
type VerifyOutcome struct {
	Result         verification.Result    `json:"result"`
	PointsEarned   int                    `json:"points_earned,omitempty"`
	CollectedWaste *models.CollectedWaste `json:"collected_waste,omitempty"`
}

// LifecycleService drives a report from submission through verified
// collection: pending -> in_progress -> verified. The "completed" status is
// declared in the schema but no flow currently transitions into it.
type LifecycleService struct {
	db         *sql.DB
	classifier verification.Classifier
	mailer     Mailer

	// drawReward is swapped out in tests for a deterministic draw.
	drawReward func() int
}

func NewLifecycleService(db *sql.DB, classifier verification.Classifier, mailer Mailer) *LifecycleService {
	return &LifecycleService{
		db:         db,
		classifier: classifier,
		mailer:     mailer,
		drawReward: func() int { return rand.Intn(collectRewardSpan) + collectRewardMin },
	}
}

// SubmitReport creates a pending report and, in the same database
// transaction, appends the fixed report bonus to the ledger and emits a
// notification. Classification is not a gate here; the client-side
// suggestion only populates waste type and amount.
func (s *LifecycleService) SubmitReport(ctx context.Context, p models.Principal, req models.SubmitReportRequest) (*models.Report, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		log.Errorf("Error creating transaction: %v", err)
		return nil, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO reports (user_id, location, latitude, longitude, waste_type, amount, image_url, verification, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'pending')`,
		p.UserID, req.Location, req.Latitude, req.Longitude, req.WasteType, req.Amount, req.ImageURL, nullableJSON(req.Verification))
	logResult("insertReport", result, err)
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	reportID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read created report id: %w", err)
	}

	if err := appendTransaction(ctx, tx, p.UserID, models.TxEarnedReport, ReportBonusPoints,
		"Points earned for reporting waste"); err != nil {
		return nil, err
	}
	message := fmt.Sprintf("You've earned %d points for reporting waste!", ReportBonusPoints)
	if err := insertNotification(ctx, tx, p.UserID, message, "reward"); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.ReportsSubmittedTotal.Inc()
	log.Infof("User %d submitted report %d (%s)", p.UserID, reportID, req.WasteType)

	if s.mailer != nil {
		if err := s.mailer.SendNotification(p.Email, p.Name, message); err != nil {
			log.Warnf("Failed to send report email to %s: %v", p.Email, err)
		}
	}

	report := &models.Report{
		ID:           reportID,
		UserID:       p.UserID,
		Location:     req.Location,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		WasteType:    req.WasteType,
		Amount:       req.Amount,
		ImageURL:     req.ImageURL,
		Verification: req.Verification,
		Status:       models.StatusPending,
		CreatedAt:    time.Now(),
	}
	return report, nil
}

// ClaimTask moves a pending report to in_progress for the calling collector.
// The update is conditional on the report being unclaimed, so a lost race is
// an explicit rejection instead of a silent overwrite.
func (s *LifecycleService) ClaimTask(ctx context.Context, p models.Principal, reportID int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE reports
		SET status = 'in_progress', collector_id = ?
		WHERE id = ? AND status = 'pending' AND collector_id IS NULL`,
		p.UserID, reportID)
	logResult("claimTask", result, err)
	if err != nil {
		metrics.ClaimsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to claim report %d: %w", reportID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		metrics.ClaimsTotal.WithLabelValues("error").Inc()
		return err
	}
	if rows == 0 {
		var status string
		err := s.db.QueryRowContext(ctx, `SELECT status FROM reports WHERE id = ?`, reportID).Scan(&status)
		if err == sql.ErrNoRows {
			metrics.ClaimsTotal.WithLabelValues("not_found").Inc()
			return ErrNotFound
		}
		if err != nil {
			metrics.ClaimsTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("failed to check report %d: %w", reportID, err)
		}
		metrics.ClaimsTotal.WithLabelValues("conflict").Inc()
		return ErrAlreadyClaimed
	}

	metrics.ClaimsTotal.WithLabelValues("ok").Inc()
	log.Infof("User %d claimed report %d", p.UserID, reportID)
	return nil
}

// VerifyCollection runs a second, independent classification of the
// collector's photo against the report's declared waste type and amount.
// Only the current collector may verify. On a positive match the report is
// verified, a collection record is created, a random collect award is
// appended to the ledger and a notification is emitted, all in one database
// transaction. On a negative match nothing is persisted.
func (s *LifecycleService) VerifyCollection(ctx context.Context, p models.Principal, reportID int64, image []byte) (*VerifyOutcome, error) {
	var (
		wasteType   string
		amount      string
		status      string
		collectorID sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT waste_type, amount, status, collector_id
		FROM reports
		WHERE id = ?`, reportID).Scan(&wasteType, &amount, &status, &collectorID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report %d: %w", reportID, err)
	}
	if !collectorID.Valid || collectorID.Int64 != p.UserID {
		metrics.VerificationsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrNotCollector
	}
	if status != models.StatusInProgress {
		metrics.VerificationsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrInvalidTransition
	}

	start := time.Now()
	raw, err := s.classifier.VerifyCollection(ctx, image, wasteType, amount)
	metrics.ClassifierDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.VerificationsTotal.WithLabelValues("classifier_error").Inc()
		log.Errorf("Classifier call failed for report %d: %v", reportID, err)
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	parsed, err := verification.ParseResult(raw)
	if err != nil {
		metrics.VerificationsTotal.WithLabelValues("parse_error").Inc()
		log.Errorf("Unparseable classifier response for report %d: %v", reportID, err)
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	outcome := &VerifyOutcome{Result: verification.ApplyOverrides(*parsed)}
	if !outcome.Result.Matched() {
		metrics.VerificationsTotal.WithLabelValues("mismatch").Inc()
		log.Infof("Verification mismatch for report %d: %+v", reportID, outcome.Result)
		return outcome, ErrVerificationFailed
	}

	award := s.drawReward()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		log.Errorf("Error creating transaction: %v", err)
		return nil, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE reports
		SET status = 'verified'
		WHERE id = ? AND status = 'in_progress' AND collector_id = ?`,
		reportID, p.UserID)
	logResult("verifyReport", result, err)
	if err != nil {
		metrics.VerificationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to verify report %d: %w", reportID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		metrics.VerificationsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrInvalidTransition
	}

	cwResult, err := tx.ExecContext(ctx, `
		INSERT INTO collected_wastes (report_id, collector_id, status)
		VALUES (?, ?, 'verified')`, reportID, p.UserID)
	logResult("insertCollectedWaste", cwResult, err)
	if err != nil {
		metrics.VerificationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to record collected waste: %w", err)
	}
	cwID, err := cwResult.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read collected waste id: %w", err)
	}

	if err := appendTransaction(ctx, tx, p.UserID, models.TxEarnedCollect, award,
		"Points earned for collecting waste"); err != nil {
		metrics.VerificationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	message := fmt.Sprintf("You've earned %d points for collecting waste!", award)
	if err := insertNotification(ctx, tx, p.UserID, message, "reward"); err != nil {
		metrics.VerificationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		metrics.VerificationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.VerificationsTotal.WithLabelValues("ok").Inc()
	log.Infof("User %d verified report %d, awarded %d points", p.UserID, reportID, award)

	if s.mailer != nil {
		if err := s.mailer.SendNotification(p.Email, p.Name, message); err != nil {
			log.Warnf("Failed to send collection email to %s: %v", p.Email, err)
		}
	}

	outcome.PointsEarned = award
	outcome.CollectedWaste = &models.CollectedWaste{
		ID:          cwID,
		ReportID:    reportID,
		CollectorID: p.UserID,
		CollectedAt: time.Now(),
		Status:      models.StatusVerified,
	}
	return outcome, nil
}

// RecentReports returns the newest reports first.
func (s *LifecycleService) RecentReports(ctx context.Context, limit int) ([]models.Report, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, location, latitude, longitude, waste_type, amount, image_url, status, collector_id, created_at
		FROM reports
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent reports: %w", err)
	}
	defer rows.Close()
	return scanReports(rows)
}

// ReportsByUser returns all reports submitted by a user.
func (s *LifecycleService) ReportsByUser(ctx context.Context, userID int64) ([]models.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, location, latitude, longitude, waste_type, amount, image_url, status, collector_id, created_at
		FROM reports
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports for user %d: %w", userID, err)
	}
	defer rows.Close()
	return scanReports(rows)
}

// CollectionTasks lists reports from the collector's perspective.
func (s *LifecycleService) CollectionTasks(ctx context.Context, limit int) ([]models.CollectionTask, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, location, waste_type, amount, status, created_at, collector_id
		FROM reports
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list collection tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.CollectionTask{}
	for rows.Next() {
		var t models.CollectionTask
		var collectorID sql.NullInt64
		if err := rows.Scan(&t.ID, &t.Location, &t.WasteType, &t.Amount, &t.Status, &t.Date, &collectorID); err != nil {
			return nil, fmt.Errorf("failed to scan collection task: %w", err)
		}
		if collectorID.Valid {
			t.CollectorID = &collectorID.Int64
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CollectedByCollector returns the collection records of one collector.
func (s *LifecycleService) CollectedByCollector(ctx context.Context, collectorID int64) ([]models.CollectedWaste, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, report_id, collector_id, collected_at, status
		FROM collected_wastes
		WHERE collector_id = ?
		ORDER BY collected_at DESC, id DESC`, collectorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collected wastes for user %d: %w", collectorID, err)
	}
	defer rows.Close()

	collected := []models.CollectedWaste{}
	for rows.Next() {
		var cw models.CollectedWaste
		if err := rows.Scan(&cw.ID, &cw.ReportID, &cw.CollectorID, &cw.CollectedAt, &cw.Status); err != nil {
			return nil, fmt.Errorf("failed to scan collected waste: %w", err)
		}
		collected = append(collected, cw)
	}
	return collected, rows.Err()
}

func scanReports(rows *sql.Rows) ([]models.Report, error) {
	reports := []models.Report{}
	for rows.Next() {
		var r models.Report
		var lat, lon sql.NullFloat64
		var imageURL sql.NullString
		var collectorID sql.NullInt64
		if err := rows.Scan(&r.ID, &r.UserID, &r.Location, &lat, &lon, &r.WasteType, &r.Amount, &imageURL, &r.Status, &collectorID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		if lat.Valid {
			r.Latitude = &lat.Float64
		}
		if lon.Valid {
			r.Longitude = &lon.Float64
		}
		if imageURL.Valid {
			r.ImageURL = imageURL.String
		}
		if collectorID.Valid {
			r.CollectorID = &collectorID.Int64
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func nullableJSON(s string) any {
	if s == "" {
		return nil
	}
	return s
}
