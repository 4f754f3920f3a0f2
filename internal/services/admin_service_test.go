package services

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/pigmarket/pigmarket-backend/internal/models"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

func (s *serviceSuite) TestDeleteUserReleasesHeldPigs() {
	admin := s.newStaff("admin")
	customer := s.newCustomer("juan")
	held := s.newPig(models.BreedDuroc, "5000")
	sold := s.newPig(models.BreedNative, "3000")

	_, err := s.reservations.Reserve(customer.ID, held.ID, orderForm("pickup", "2500"), nil)
	s.Require().NoError(err)
	r, err := s.reservations.Purchase(customer.ID, sold.ID, orderForm("pickup", "0"), nil)
	s.Require().NoError(err)
	_, _, err = s.reservations.Accept(r.ID)
	s.Require().NoError(err)
	paid := true
	_, err = s.payments.TogglePaymentStatus(r.ID, &paid)
	s.Require().NoError(err)

	_, err = s.messaging.Start(customer, &StartConversationRequest{Message: "Hi"})
	s.Require().NoError(err)

	message, err := s.admin.DeleteUser(admin.ID, customer.ID)
	s.Require().NoError(err)
	s.Contains(message, "juan")

	s.True(s.pigAvailable(held.ID))
	s.False(s.pigAvailable(sold.ID))
	s.Zero(s.countRows(&models.Reservation{}, ""))
	s.Zero(s.countRows(&models.Conversation{}, ""))
	s.Equal(int64(1), s.countRows(&models.Revenue{}, ""))
	s.Zero(s.countRows(&models.User{}, "id = ?", customer.ID))
}

func (s *serviceSuite) TestDeleteUserProtectsSuperuserAndSelf() {
	admin := s.newStaff("admin")
	root := s.newStaff("root")
	s.Require().NoError(s.db.Model(root).Update("is_superuser", true).Error)

	_, err := s.admin.DeleteUser(admin.ID, root.ID)
	s.ErrorIs(err, ErrForbidden)

	_, err = s.admin.DeleteUser(admin.ID, admin.ID)
	s.ErrorIs(err, ErrForbidden)
}

func (s *serviceSuite) TestUpdateUserCannotDisableSuperuser() {
	admin := s.newStaff("admin")
	root := s.newStaff("root")
	s.Require().NoError(s.db.Model(root).Update("is_superuser", true).Error)

	inactive := models.UserStatusInactive
	_, err := s.admin.UpdateUser(admin.ID, root.ID, &AdminUserUpdateRequest{Status: &inactive})
	s.ErrorIs(err, ErrForbidden)
}

func (s *serviceSuite) TestCreateUserRejectsDuplicateUsername() {
	admin := s.newStaff("admin")
	s.newCustomer("juan")

	_, err := s.admin.CreateUser(admin.ID, &AdminUserRequest{Username: "juan", Password: "Secret123"})
	s.ErrorIs(err, ErrConflict)

	user, err := s.admin.CreateUser(admin.ID, &AdminUserRequest{
		Username:        "maria",
		Password:        "Secret123",
		CellphoneNumber: "0917-765-4321",
	})
	s.Require().NoError(err)
	s.Equal(models.UserTypeCustomer, user.UserType)
	s.Equal("09177654321", user.CellphoneNumber)
}

func (s *serviceSuite) TestSetUserPasswordForbiddenForStaff() {
	admin := s.newStaff("admin")
	other := s.newStaff("other")
	customer := s.newCustomer("juan")

	_, err := s.admin.SetUserPassword(admin.ID, other.ID, "NewSecret123")
	s.ErrorIs(err, ErrForbidden)

	updated, err := s.admin.SetUserPassword(admin.ID, customer.ID, "NewSecret123")
	s.Require().NoError(err)
	s.NoError(updated.CheckPassword("NewSecret123"))
}

func (s *serviceSuite) TestGetUsersListsCustomersOnly() {
	s.newStaff("admin")
	s.newCustomer("juan")
	s.newCustomer("maria")

	filter := AdminUserFilter{PaginationParams: utils.PaginationParams{Page: 1, Limit: 20, Sort: "username", Order: "asc"}}
	rows, total, err := s.admin.GetUsers(filter)
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Equal("juan", rows[0].Username)
}

func (s *serviceSuite) TestTrackingRecordsCountCompletedOrders() {
	first := s.acceptedPurchase(models.BreedDuroc, "5000")
	second := s.acceptedPurchase(models.BreedNative, "3000")
	s.acceptedPurchase(models.BreedLandrace, "4000")

	paid := true
	_, err := s.payments.TogglePaymentStatus(first.ID, &paid)
	s.Require().NoError(err)
	_, err = s.payments.TogglePaymentStatus(second.ID, &paid)
	s.Require().NoError(err)

	records, err := s.admin.GetTrackingRecords()
	s.Require().NoError(err)
	s.Equal(2, records.TotalCompletedOrders)
	s.True(records.TotalRevenue.Equal(decimal.NewFromInt(8000)))
	s.Len(records.MonthlyData, 12)
	s.Len(records.BreedSales, 2)
	s.Len(records.YearlySales, 1)
	s.Equal(2, records.YearlySales[0].TotalOrders)
	s.True(records.YearlySales[0].AvgOrderValue.Equal(decimal.NewFromInt(4000)))
	s.Equal(2, records.PeakMonth.Orders)

	revenue, err := s.admin.GetRevenueDashboard()
	s.Require().NoError(err)
	s.True(revenue.TotalRevenue.Equal(decimal.NewFromInt(8000)))
	s.Len(revenue.RecentRevenues, 2)
}

func (s *serviceSuite) TestDashboardStats() {
	customer := s.newCustomer("juan")
	s.newPig(models.BreedDuroc, "5000")
	pig := s.newPig(models.BreedNative, "3000")
	_, err := s.reservations.Reserve(customer.ID, pig.ID, orderForm("pickup", "1500"), nil)
	s.Require().NoError(err)

	stats, err := s.admin.GetDashboardStats()
	s.Require().NoError(err)
	s.Equal(int64(1), stats.AvailablePigs)
	s.Equal(int64(1), stats.PendingCount)
	s.Len(stats.PendingOrders, 1)
	s.True(stats.TotalRevenue.IsZero())
}

func (s *serviceSuite) TestExportTrackingRecordsWritesWorkbook() {
	r := s.acceptedPurchase(models.BreedDuroc, "5000")
	paid := true
	_, err := s.payments.TogglePaymentStatus(r.ID, &paid)
	s.Require().NoError(err)

	f, name, err := s.exports.TrackingWorkbook()
	s.Require().NoError(err)
	s.True(strings.HasPrefix(name, "tracking_records_"))
	s.True(strings.HasSuffix(name, ".xlsx"))

	var buf bytes.Buffer
	s.Require().NoError(f.Write(&buf))
	s.Require().NoError(f.Close())

	book, err := excelize.OpenReader(&buf)
	s.Require().NoError(err)
	defer book.Close()
	s.Equal([]string{ordersSheet, monthsSheet, breedsSheet}, book.GetSheetList())

	rows, err := book.GetRows(ordersSheet)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal(string(models.BreedDuroc), rows[1][3])
}
