package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"greenloop/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestRedeem(t *testing.T) {
	it(func() {
		p := models.Principal{UserID: 1, Email: "ada@example.com", Name: "Ada"}

		testCases := []struct {
			name         string
			rewardID     int64
			balance      int
			rewardRow    *models.Reward
			rewardMissed bool

			expectError    error
			expectPoints   int
			expectBalance  int
			expectRedeemed string
		}{
			{
				name:           "Redeem all points",
				rewardID:       0,
				balance:        45,
				expectPoints:   45,
				expectBalance:  0,
				expectRedeemed: "Redeemed all points: 45",
			}, {
				name:           "Redeem all points with empty balance",
				rewardID:       0,
				balance:        0,
				expectPoints:   0,
				expectBalance:  0,
				expectRedeemed: "Redeemed all points: 0",
			}, {
				name:           "Redeem catalog reward",
				rewardID:       3,
				balance:        100,
				rewardRow:      &models.Reward{ID: 3, Name: "Tote Bag", Cost: 80},
				expectPoints:   80,
				expectBalance:  20,
				expectRedeemed: "Redeemed: Tote Bag",
			}, {
				name:        "Insufficient points",
				rewardID:    3,
				balance:     10,
				rewardRow:   &models.Reward{ID: 3, Name: "Tote Bag", Cost: 80},
				expectError: ErrInsufficientPoints,
			}, {
				name:         "Invalid reward",
				rewardID:     99,
				balance:      100,
				rewardMissed: true,
				expectError:  ErrInsufficientPoints,
			},
		}

		for _, testCase := range testCases {
			setUp()
			mock.ExpectBegin()
			mock.ExpectQuery("SELECT COALESCE").
				WithArgs(p.UserID).
				WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(testCase.balance))

			if testCase.rewardID != 0 {
				q := mock.ExpectQuery("SELECT name, cost").WithArgs(testCase.rewardID)
				if testCase.rewardMissed {
					q.WillReturnError(sql.ErrNoRows)
				} else {
					q.WillReturnRows(sqlmock.NewRows([]string{"name", "cost"}).
						AddRow(testCase.rewardRow.Name, testCase.rewardRow.Cost))
				}
			}

			if testCase.expectError == nil {
				mock.ExpectExec("INSERT INTO transactions").
					WithArgs(p.UserID, "redeemed", testCase.expectPoints, testCase.expectRedeemed).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec("INSERT INTO notifications").
					WithArgs(p.UserID, sqlmock.AnyArg(), "reward").
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			s := NewRewardService(db, nil)
			resp, err := s.Redeem(context.Background(), p, testCase.rewardID)

			if testCase.expectError != nil {
				if !errors.Is(err, testCase.expectError) {
					t.Errorf("%s, Redeem(): expected error %v, got %v", testCase.name, testCase.expectError, err)
				}
			} else {
				if err != nil {
					t.Errorf("%s, Redeem(): unexpected error: %v", testCase.name, err)
					continue
				}
				if resp.Points != testCase.expectPoints {
					t.Errorf("%s, Redeem(): expected %d points redeemed, got %d", testCase.name, testCase.expectPoints, resp.Points)
				}
				if resp.Balance != testCase.expectBalance {
					t.Errorf("%s, Redeem(): expected balance %d, got %d", testCase.name, testCase.expectBalance, resp.Balance)
				}
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("%s, unmet expectations: %v", testCase.name, err)
			}
		}
	})
}

func TestAvailableRewards(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(60))
		mock.ExpectQuery("SELECT id, name, cost, description, collection_info").
			WillReturnRows(sqlmock.NewRows(
				[]string{"id", "name", "cost", "description", "collection_info"}).
				AddRow(3, "Tote Bag", 80, "Reusable tote bag", "Pick up at the community center").
				AddRow(4, "Tree Sapling", 120, "A sapling planted in your name", "Planted by the city nursery"))

		s := NewRewardService(db, nil)
		rewards, err := s.AvailableRewards(context.Background(), 1)
		if err != nil {
			t.Fatalf("AvailableRewards(): unexpected error: %v", err)
		}
		if len(rewards) != 3 {
			t.Fatalf("AvailableRewards(): expected 3 rewards, got %d", len(rewards))
		}
		if rewards[0].ID != 0 || rewards[0].Cost != 60 || rewards[0].Name != "Your Points" {
			t.Errorf("AvailableRewards(): unexpected synthetic entry: %+v", rewards[0])
		}
		if rewards[1].Name != "Tote Bag" {
			t.Errorf("AvailableRewards(): unexpected first catalog entry: %+v", rewards[1])
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}
