package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"greenloop/models"
	"greenloop/verification"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSubmitReport(t *testing.T) {
	it(func() {
		p := models.Principal{UserID: 1, Email: "ada@example.com", Name: "Ada"}
		req := models.SubmitReportRequest{
			Location:  "Main St park entrance",
			WasteType: "plastic",
			Amount:    "2 bags",
		}

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO reports").
			WithArgs(p.UserID, req.Location, nil, nil, req.WasteType, req.Amount, "", nil).
			WillReturnResult(sqlmock.NewResult(7, 1))
		mock.ExpectExec("INSERT INTO transactions").
			WithArgs(p.UserID, "earned_report", 10, "Points earned for reporting waste").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO notifications").
			WithArgs(p.UserID, "You've earned 10 points for reporting waste!", "reward").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		s := NewLifecycleService(db, verification.NewStubClassifier(), nil)
		report, err := s.SubmitReport(context.Background(), p, req)
		if err != nil {
			t.Fatalf("SubmitReport(): unexpected error: %v", err)
		}
		if report.ID != 7 {
			t.Errorf("SubmitReport(): expected report id 7, got %d", report.ID)
		}
		if report.Status != models.StatusPending {
			t.Errorf("SubmitReport(): expected status pending, got %s", report.Status)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestSubmitReportRollsBackOnLedgerFailure(t *testing.T) {
	it(func() {
		p := models.Principal{UserID: 1, Email: "ada@example.com", Name: "Ada"}
		req := models.SubmitReportRequest{
			Location:  "Main St park entrance",
			WasteType: "plastic",
			Amount:    "2 bags",
		}

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO reports").
			WillReturnResult(sqlmock.NewResult(7, 1))
		mock.ExpectExec("INSERT INTO transactions").
			WillReturnError(errors.New("ledger append failed"))
		mock.ExpectRollback()

		s := NewLifecycleService(db, verification.NewStubClassifier(), nil)
		if _, err := s.SubmitReport(context.Background(), p, req); err == nil {
			t.Error("SubmitReport(): expected error, got nil")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestClaimTask(t *testing.T) {
	it(func() {
		p := models.Principal{UserID: 2, Email: "carl@example.com", Name: "Carl"}

		testCases := []struct {
			name         string
			rowsAffected int64
			statusOnMiss string
			missing      bool
			expectError  error
		}{
			{
				name:         "Claim succeeds",
				rowsAffected: 1,
			}, {
				name:         "Claim lost race",
				rowsAffected: 0,
				statusOnMiss: "in_progress",
				expectError:  ErrAlreadyClaimed,
			}, {
				name:        "Report does not exist",
				missing:     true,
				expectError: ErrNotFound,
			},
		}

		for _, testCase := range testCases {
			setUp()
			mock.ExpectExec("UPDATE reports").
				WithArgs(p.UserID, int64(5)).
				WillReturnResult(sqlmock.NewResult(0, testCase.rowsAffected))
			if testCase.rowsAffected == 0 {
				q := mock.ExpectQuery("SELECT status FROM reports").WithArgs(int64(5))
				if testCase.missing {
					q.WillReturnError(sql.ErrNoRows)
				} else {
					q.WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(testCase.statusOnMiss))
				}
			}

			s := NewLifecycleService(db, verification.NewStubClassifier(), nil)
			err := s.ClaimTask(context.Background(), p, 5)
			if !errors.Is(err, testCase.expectError) {
				t.Errorf("%s, ClaimTask(): expected error %v, got %v", testCase.name, testCase.expectError, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("%s, unmet expectations: %v", testCase.name, err)
			}
		}
	})
}

func TestDefaultRewardDraw(t *testing.T) {
	s := NewLifecycleService(nil, verification.NewStubClassifier(), nil)
	for i := 0; i < 1000; i++ {
		award := s.drawReward()
		if award < 10 || award > 59 {
			t.Fatalf("drawReward(): %d is outside [10, 59]", award)
		}
	}
}

func TestVerifyCollection(t *testing.T) {
	it(func() {
		collector := models.Principal{UserID: 2, Email: "carl@example.com", Name: "Carl"}

		testCases := []struct {
			name        string
			stub        *verification.StubClassifier
			status      string
			collectorID any
			caller      models.Principal

			expectError  error
			expectPoints int
		}{
			{
				name:         "High confidence double mismatch is forced to match",
				stub:         &verification.StubClassifier{WasteTypeMatch: false, QuantityMatch: false, Confidence: 0.95},
				status:       "in_progress",
				collectorID:  int64(2),
				caller:       collector,
				expectPoints: 42,
			}, {
				name:         "Moderate confidence single match promotes both",
				stub:         &verification.StubClassifier{WasteTypeMatch: true, QuantityMatch: false, Confidence: 0.85},
				status:       "in_progress",
				collectorID:  int64(2),
				caller:       collector,
				expectPoints: 42,
			}, {
				name:         "Low confidence waste-type match promotes both",
				stub:         &verification.StubClassifier{WasteTypeMatch: true, QuantityMatch: false, Confidence: 0.3},
				status:       "in_progress",
				collectorID:  int64(2),
				caller:       collector,
				expectPoints: 42,
			}, {
				name:        "Low confidence double mismatch fails",
				stub:        &verification.StubClassifier{WasteTypeMatch: false, QuantityMatch: false, Confidence: 0.5},
				status:      "in_progress",
				collectorID: int64(2),
				caller:      collector,
				expectError: ErrVerificationFailed,
			}, {
				name:        "Classifier failure fails the attempt",
				stub:        &verification.StubClassifier{Err: errors.New("model unavailable")},
				status:      "in_progress",
				collectorID: int64(2),
				caller:      collector,
				expectError: ErrVerificationFailed,
			}, {
				name:        "Non-collector is rejected",
				stub:        verification.NewStubClassifier(),
				status:      "in_progress",
				collectorID: int64(3),
				caller:      collector,
				expectError: ErrNotCollector,
			}, {
				name:        "Unclaimed report is rejected",
				stub:        verification.NewStubClassifier(),
				status:      "pending",
				collectorID: nil,
				caller:      collector,
				expectError: ErrNotCollector,
			}, {
				name:        "Already verified report is rejected",
				stub:        verification.NewStubClassifier(),
				status:      "verified",
				collectorID: int64(2),
				caller:      collector,
				expectError: ErrInvalidTransition,
			},
		}

		for _, testCase := range testCases {
			setUp()
			mock.ExpectQuery("SELECT waste_type, amount, status, collector_id").
				WithArgs(int64(5)).
				WillReturnRows(sqlmock.NewRows(
					[]string{"waste_type", "amount", "status", "collector_id"}).
					AddRow("plastic", "2 bags", testCase.status, testCase.collectorID))

			if testCase.expectError == nil {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE reports").
					WithArgs(int64(5), testCase.caller.UserID).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("INSERT INTO collected_wastes").
					WithArgs(int64(5), testCase.caller.UserID).
					WillReturnResult(sqlmock.NewResult(9, 1))
				mock.ExpectExec("INSERT INTO transactions").
					WithArgs(testCase.caller.UserID, "earned_collect", testCase.expectPoints, "Points earned for collecting waste").
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec("INSERT INTO notifications").
					WithArgs(testCase.caller.UserID, sqlmock.AnyArg(), "reward").
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			}

			s := NewLifecycleService(db, testCase.stub, nil)
			s.drawReward = func() int { return 42 }

			outcome, err := s.VerifyCollection(context.Background(), testCase.caller, 5, []byte("jpeg"))
			if testCase.expectError != nil {
				if !errors.Is(err, testCase.expectError) {
					t.Errorf("%s, VerifyCollection(): expected error %v, got %v", testCase.name, testCase.expectError, err)
				}
			} else {
				if err != nil {
					t.Errorf("%s, VerifyCollection(): unexpected error: %v", testCase.name, err)
					continue
				}
				if outcome.PointsEarned != testCase.expectPoints {
					t.Errorf("%s, VerifyCollection(): expected %d points, got %d", testCase.name, testCase.expectPoints, outcome.PointsEarned)
				}
				if outcome.CollectedWaste == nil || outcome.CollectedWaste.ID != 9 {
					t.Errorf("%s, VerifyCollection(): unexpected collected waste: %+v", testCase.name, outcome.CollectedWaste)
				}
				if !outcome.Result.Matched() {
					t.Errorf("%s, VerifyCollection(): expected matched result, got %+v", testCase.name, outcome.Result)
				}
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("%s, unmet expectations: %v", testCase.name, err)
			}
		}
	})
}
