// internal/services/admin_service.go
package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pigmarket/pigmarket-backend/internal/models"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

// Breeds with this many available pigs or fewer are flagged on the dashboard.
const lowStockThreshold = 2

type AdminService struct {
	db  *gorm.DB
	now func() time.Time
}

type AdminDashboardStats struct {
	AvailablePigs      int64                `json:"available_pigs"`
	TotalReservations  int64                `json:"total_reservations"`
	PendingCount       int64                `json:"pending_count"`
	TodaysDeliveries   []models.Reservation `json:"todays_deliveries"`
	TodaysIncome       decimal.Decimal      `json:"todays_income"`
	TotalRevenue       decimal.Decimal      `json:"total_revenue"`
	PendingOrders      []models.Reservation `json:"pending_orders"`
	RecentReservations []models.Reservation `json:"recent_reservations"`
	LowStockBreeds     []BreedStock         `json:"low_stock_breeds"`
}

type BreedStock struct {
	Breed     string `json:"breed"`
	Available int64  `json:"available"`
}

type RevenueDashboard struct {
	TotalRevenue   decimal.Decimal  `json:"total_revenue"`
	MonthlyRevenue decimal.Decimal  `json:"monthly_revenue"`
	WeeklyRevenue  decimal.Decimal  `json:"weekly_revenue"`
	RecentRevenues []models.Revenue `json:"recent_revenues"`
}

type MonthlySales struct {
	Month   string          `json:"month"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type YearlySales struct {
	Year          int             `json:"year"`
	TotalOrders   int             `json:"total_orders"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
}

type BreedSales struct {
	Breed        string          `json:"breed"`
	TotalSold    int             `json:"total_sold"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

type TrackingRecords struct {
	CompletedOrders      []models.Reservation `json:"completed_orders"`
	MonthlyData          []MonthlySales       `json:"monthly_data"`
	PeakMonth            MonthlySales         `json:"peak_month"`
	YearlySales          []YearlySales        `json:"yearly_sales"`
	RecentOrders         []models.Reservation `json:"recent_orders"`
	BreedSales           []BreedSales         `json:"breed_sales"`
	TotalCompletedOrders int                  `json:"total_completed_orders"`
	TotalRevenue         decimal.Decimal      `json:"total_revenue"`
	CurrentYear          int                  `json:"current_year"`
}

type AdminUserFilter struct {
	utils.PaginationParams
	Status string
}

type AdminUserRow struct {
	models.User
	AcceptedReservations int64 `json:"accepted_reservations"`
}

type AdminUserStats struct {
	ActiveUsers   int64 `json:"active_users"`
	AdminCount    int64 `json:"admin_count"`
	CustomerCount int64 `json:"customer_count"`
	TotalAccepted int64 `json:"total_accepted"`
}

type AdminUserRequest struct {
	Username        string            `json:"username" validate:"required,username,max=150"`
	Email           string            `json:"email" validate:"omitempty,email"`
	Password        string            `json:"password" validate:"required,password"`
	FirstName       string            `json:"first_name" validate:"max=100"`
	LastName        string            `json:"last_name" validate:"max=100"`
	CellphoneNumber string            `json:"cellphone_number" validate:"omitempty,ph_mobile"`
	Address         string            `json:"address"`
	UserType        models.UserType   `json:"user_type" validate:"omitempty,oneof=customer staff"`
	Status          models.UserStatus `json:"status" validate:"omitempty,oneof=active inactive"`
}

type AdminUserUpdateRequest struct {
	Username        *string            `json:"username" validate:"omitempty,username,max=150"`
	Email           *string            `json:"email" validate:"omitempty,email"`
	FirstName       *string            `json:"first_name" validate:"omitempty,max=100"`
	LastName        *string            `json:"last_name" validate:"omitempty,max=100"`
	CellphoneNumber *string            `json:"cellphone_number" validate:"omitempty,ph_mobile"`
	Address         *string            `json:"address"`
	UserType        *models.UserType   `json:"user_type" validate:"omitempty,oneof=customer staff"`
	Status          *models.UserStatus `json:"status" validate:"omitempty,oneof=active inactive"`
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{
		db:  db,
		now: time.Now,
	}
}

// Dashboard Statistics
func (s *AdminService) GetDashboardStats() (*AdminDashboardStats, error) {
	stats := &AdminDashboardStats{
		TodaysIncome: decimal.Zero,
		TotalRevenue: decimal.Zero,
	}
	today := models.DateOnly(s.now())

	s.db.Model(&models.Pig{}).Where("is_available = ?", true).Count(&stats.AvailablePigs)
	s.db.Model(&models.Reservation{}).Count(&stats.TotalReservations)
	s.db.Model(&models.Reservation{}).Where("status = ?", models.ReservationStatusPending).Count(&stats.PendingCount)

	if err := s.db.Preload("Pig").Preload("User").
		Where("status = ? AND pickup_date = ?", models.ReservationStatusAccepted, today).
		Order("pickup_time ASC").
		Find(&stats.TodaysDeliveries).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch today's deliveries: %w", err)
	}

	var completedToday []models.Reservation
	if err := s.db.Preload("Pig").
		Where("status = ? AND pickup_date = ?", models.ReservationStatusCompleted, today).
		Find(&completedToday).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch today's income: %w", err)
	}
	for _, r := range completedToday {
		stats.TodaysIncome = stats.TodaysIncome.Add(r.Pig.Price)
	}

	total, err := s.sumRevenue(time.Time{})
	if err != nil {
		return nil, err
	}
	stats.TotalRevenue = total

	if err := s.db.Preload("Pig").Preload("User").
		Where("status = ?", models.ReservationStatusPending).
		Order("created_at DESC").Limit(5).
		Find(&stats.PendingOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch pending orders: %w", err)
	}

	if err := s.db.Preload("Pig").Preload("User").
		Order("created_at DESC").Limit(3).
		Find(&stats.RecentReservations).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch recent reservations: %w", err)
	}

	if err := s.db.Model(&models.Pig{}).
		Select("breed, COUNT(*) AS available").
		Where("is_available = ?", true).
		Group("breed").
		Having("COUNT(*) <= ?", lowStockThreshold).
		Order("breed").
		Scan(&stats.LowStockBreeds).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch stock levels: %w", err)
	}

	return stats, nil
}

// sumRevenue adds up revenue booked at or after since; the zero time sums
// everything.
func (s *AdminService) sumRevenue(since time.Time) (decimal.Decimal, error) {
	query := s.db.Model(&models.Revenue{})
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}

	var amounts []decimal.Decimal
	if err := query.Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return decimal.Sum(decimal.Zero, amounts...), nil
}

func (s *AdminService) GetRevenueDashboard() (*RevenueDashboard, error) {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	dashboard := &RevenueDashboard{}
	var err error
	if dashboard.TotalRevenue, err = s.sumRevenue(time.Time{}); err != nil {
		return nil, err
	}
	if dashboard.MonthlyRevenue, err = s.sumRevenue(monthStart); err != nil {
		return nil, err
	}
	if dashboard.WeeklyRevenue, err = s.sumRevenue(now.AddDate(0, 0, -7)); err != nil {
		return nil, err
	}

	if err := s.db.Order("created_at DESC").Limit(10).Find(&dashboard.RecentRevenues).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch recent revenue: %w", err)
	}
	return dashboard, nil
}

// CompletedOrders returns every completed order, newest first.
func (s *AdminService) CompletedOrders() ([]models.Reservation, error) {
	var orders []models.Reservation
	if err := s.db.Preload("Pig").Preload("User").
		Where("status = ?", models.ReservationStatusCompleted).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch completed orders: %w", err)
	}
	return orders, nil
}

// GetTrackingRecords aggregates completed orders by month, year and breed.
// Order value is the pig price; grouping uses the order date.
func (s *AdminService) GetTrackingRecords() (*TrackingRecords, error) {
	orders, err := s.CompletedOrders()
	if err != nil {
		return nil, err
	}

	now := s.now()
	records := &TrackingRecords{
		TotalCompletedOrders: len(orders),
		TotalRevenue:         decimal.Zero,
		CurrentYear:          now.Year(),
		MonthlyData:          make([]MonthlySales, 12),
		RecentOrders:         []models.Reservation{},
	}
	for i := range records.MonthlyData {
		records.MonthlyData[i] = MonthlySales{Month: time.Month(i + 1).String(), Revenue: decimal.Zero}
	}

	years := map[int]*YearlySales{}
	breeds := map[string]*BreedSales{}
	recentSince := now.AddDate(0, 0, -30)

	for _, r := range orders {
		price := r.Pig.Price
		created := r.CreatedAt.In(now.Location())
		records.TotalRevenue = records.TotalRevenue.Add(price)

		if created.Year() == now.Year() {
			m := &records.MonthlyData[created.Month()-1]
			m.Orders++
			m.Revenue = m.Revenue.Add(price)
		}

		y, ok := years[created.Year()]
		if !ok {
			y = &YearlySales{Year: created.Year(), TotalRevenue: decimal.Zero}
			years[created.Year()] = y
		}
		y.TotalOrders++
		y.TotalRevenue = y.TotalRevenue.Add(price)

		b, ok := breeds[string(r.Pig.Breed)]
		if !ok {
			b = &BreedSales{Breed: string(r.Pig.Breed), TotalRevenue: decimal.Zero}
			breeds[string(r.Pig.Breed)] = b
		}
		b.TotalSold++
		b.TotalRevenue = b.TotalRevenue.Add(price)

		if !created.Before(recentSince) {
			records.RecentOrders = append(records.RecentOrders, r)
		}
	}

	records.PeakMonth = MonthlySales{Month: "No Data", Revenue: decimal.Zero}
	for _, m := range records.MonthlyData {
		if m.Orders > records.PeakMonth.Orders {
			records.PeakMonth = m
		}
	}

	for _, y := range years {
		y.AvgOrderValue = y.TotalRevenue.Div(decimal.NewFromInt(int64(y.TotalOrders))).Round(2)
		records.YearlySales = append(records.YearlySales, *y)
	}
	sort.Slice(records.YearlySales, func(i, j int) bool {
		return records.YearlySales[i].Year < records.YearlySales[j].Year
	})

	for _, b := range breeds {
		records.BreedSales = append(records.BreedSales, *b)
	}
	sort.Slice(records.BreedSales, func(i, j int) bool {
		if records.BreedSales[i].TotalSold != records.BreedSales[j].TotalSold {
			return records.BreedSales[i].TotalSold > records.BreedSales[j].TotalSold
		}
		return records.BreedSales[i].Breed < records.BreedSales[j].Breed
	})
	if len(records.BreedSales) > 5 {
		records.BreedSales = records.BreedSales[:5]
	}

	if len(orders) > 50 {
		orders = orders[:50]
	}
	records.CompletedOrders = orders
	return records, nil
}

// User Management
func (s *AdminService) GetUsers(filter AdminUserFilter) ([]AdminUserRow, int64, error) {
	query := s.db.Model(&models.User{}).Where("user_type = ?", models.UserTypeCustomer)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		searchTerm := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			searchTerm, searchTerm, searchTerm, searchTerm)
	}

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	allowedSortFields := []string{"created_at", "username", "email", "last_login_at", "status"}
	query = query.Scopes(utils.SortBy(filter.PaginationParams, allowedSortFields...), utils.Paginate(filter.PaginationParams))

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	rows := make([]AdminUserRow, 0, len(users))
	if len(users) == 0 {
		return rows, total, nil
	}

	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	var counts []struct {
		UserID   uuid.UUID
		Accepted int64
	}
	if err := s.db.Model(&models.Reservation{}).
		Select("user_id, COUNT(*) AS accepted").
		Where("user_id IN ? AND status = ?", ids, models.ReservationStatusAccepted).
		Group("user_id").
		Scan(&counts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reservations: %w", err)
	}
	accepted := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		accepted[c.UserID] = c.Accepted
	}

	for _, u := range users {
		rows = append(rows, AdminUserRow{User: u, AcceptedReservations: accepted[u.ID]})
	}
	return rows, total, nil
}

func (s *AdminService) GetUserStats() (*AdminUserStats, error) {
	stats := &AdminUserStats{}
	s.db.Model(&models.User{}).Where("status = ?", models.UserStatusActive).Count(&stats.ActiveUsers)
	s.db.Model(&models.User{}).Where("user_type = ?", models.UserTypeStaff).Count(&stats.AdminCount)
	s.db.Model(&models.User{}).Where("user_type = ?", models.UserTypeCustomer).Count(&stats.CustomerCount)
	if err := s.db.Model(&models.Reservation{}).
		Where("status = ?", models.ReservationStatusAccepted).
		Count(&stats.TotalAccepted).Error; err != nil {
		return nil, fmt.Errorf("failed to count reservations: %w", err)
	}
	return stats, nil
}

func (s *AdminService) GetUser(id uuid.UUID) (*models.User, error) {
	return findUser(s.db, id)
}

func (s *AdminService) ensureUniqueUsername(username string, except uuid.UUID) error {
	return ensureUniqueUsername(s.db, username, except, "Username already exists!")
}

func (s *AdminService) CreateUser(adminID uuid.UUID, req *AdminUserRequest) (*models.User, error) {
	if err := s.ensureUniqueUsername(req.Username, uuid.Nil); err != nil {
		return nil, err
	}

	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		UserType:  req.UserType,
		Status:    req.Status,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
	}
	if user.UserType == "" {
		user.UserType = models.UserTypeCustomer
	}
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}
	if req.CellphoneNumber != "" {
		phone, err := utils.NormalizePhone(req.CellphoneNumber)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
		}
		user.CellphoneNumber = phone
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Omit(clause.Associations).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	go s.createAuditLog(adminID, "CREATE_USER", "user", &user.ID, nil,
		map[string]interface{}{"username": user.Username, "user_type": user.UserType})

	return user, nil
}

func (s *AdminService) UpdateUser(adminID, id uuid.UUID, req *AdminUserUpdateRequest) (*models.User, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}

	old := map[string]interface{}{
		"username":  user.Username,
		"email":     user.Email,
		"user_type": user.UserType,
		"status":    user.Status,
	}

	updates := map[string]interface{}{}
	if req.Username != nil && *req.Username != user.Username {
		if err := s.ensureUniqueUsername(*req.Username, user.ID); err != nil {
			return nil, err
		}
		updates["username"] = *req.Username
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.CellphoneNumber != nil {
		phone := ""
		if *req.CellphoneNumber != "" {
			if phone, err = utils.NormalizePhone(*req.CellphoneNumber); err != nil {
				return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
			}
		}
		updates["cellphone_number"] = phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.UserType != nil {
		if user.IsSuperuser && *req.UserType != models.UserTypeStaff {
			return nil, fmt.Errorf("%w: Cannot change the role of a superuser account!", ErrForbidden)
		}
		updates["user_type"] = *req.UserType
	}
	if req.Status != nil {
		if user.IsSuperuser && *req.Status != models.UserStatusActive {
			return nil, fmt.Errorf("%w: Cannot disable a superuser account!", ErrForbidden)
		}
		updates["status"] = *req.Status
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	go s.createAuditLog(adminID, "UPDATE_USER", "user", &user.ID, old, updates)

	return s.GetUser(user.ID)
}

// SetUserPassword changes a customer's password. Staff manage their own
// credentials outside the dashboard.
func (s *AdminService) SetUserPassword(adminID, id uuid.UUID, password string) (*models.User, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}
	if user.IsStaff() || user.IsSuperuser {
		return nil, fmt.Errorf("%w: Cannot change password for admin/staff users!", ErrForbidden)
	}

	if err := user.SetPassword(password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("password_hash", user.PasswordHash).Error; err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	go s.createAuditLog(adminID, "CHANGE_USER_PASSWORD", "user", &user.ID, nil, nil)

	return user, nil
}

// DeleteUser removes an account with everything it owns. Pigs held by the
// user's pending or accepted orders become available again; revenue rows stay.
func (s *AdminService) DeleteUser(adminID, id uuid.UUID) (string, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return "", err
	}
	if user.IsSuperuser {
		return "", fmt.Errorf("%w: Cannot delete superuser accounts!", ErrForbidden)
	}
	if user.ID == adminID {
		return "", fmt.Errorf("%w: You cannot delete your own account.", ErrForbidden)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var reservations []models.Reservation
		if err := tx.Where("user_id = ?", user.ID).Find(&reservations).Error; err != nil {
			return fmt.Errorf("failed to fetch reservations: %w", err)
		}
		ids := make([]uuid.UUID, 0, len(reservations))
		for i := range reservations {
			if reservations[i].IsLive() {
				if err := releasePig(tx, reservations[i].PigID); err != nil {
					return err
				}
			}
			ids = append(ids, reservations[i].ID)
		}
		if err := deleteReservationRows(tx, ids); err != nil {
			return err
		}

		var conversationIDs []uuid.UUID
		if err := tx.Model(&models.Conversation{}).Where("user_id = ?", user.ID).
			Pluck("id", &conversationIDs).Error; err != nil {
			return fmt.Errorf("failed to fetch conversations: %w", err)
		}
		if err := deleteConversations(tx, conversationIDs); err != nil {
			return err
		}
		if err := tx.Where("sender_id = ?", user.ID).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Feedback{}).Error; err != nil {
			return fmt.Errorf("failed to delete feedback: %w", err)
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.DeclineNotification{}).Error; err != nil {
			return fmt.Errorf("failed to delete notifications: %w", err)
		}
		if err := tx.Model(&models.AuditLog{}).Where("user_id = ?", user.ID).
			Update("user_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach audit logs: %w", err)
		}

		if err := tx.Where("id = ?", user.ID).Delete(&models.User{}).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	go s.createAuditLog(adminID, "DELETE_USER", "user", &user.ID,
		map[string]interface{}{"username": user.Username}, nil)

	return fmt.Sprintf("User %s has been deleted successfully.", user.Username), nil
}

// Audit Logs
func (s *AdminService) GetAuditLogs(params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	query := s.db.Model(&models.AuditLog{}).Preload("User")

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(action) LIKE ? OR LOWER(resource_type) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query = query.Scopes(utils.SortBy(params, "created_at", "action", "resource_type"), utils.Paginate(params))

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}
	return logs, total, nil
}

// Helper methods
func (s *AdminService) createAuditLog(userID uuid.UUID, action, resourceType string, resourceID *uuid.UUID, oldValues, newValues map[string]interface{}) {
	auditLog := &models.AuditLog{
		UserID:       &userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		OldValues:    models.JSONB(oldValues),
		NewValues:    models.JSONB(newValues),
	}

	s.db.Omit(clause.Associations).Create(auditLog)
}
