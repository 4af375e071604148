package handler

import "github.com/mealvilla/staff-portal/internal/core/domain"

// result is the envelope every endpoint answers with. Errors use the same
// shape with Success=false and no Data.
type result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func ok(message string, data any) result {
	return result{Success: true, Message: message, Data: data}
}

// --- auth ---

type loginRequest struct {
	StaffID  string `json:"staff_id" validate:"required,len=6,numeric"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// --- users ---

type createUserRequest struct {
	Name     string `json:"name"     validate:"required,max=120"`
	StaffID  string `json:"staff_id" validate:"required,len=6,numeric"`
	Role     string `json:"role"     validate:"required,oneof=manager supervisor staff developer"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

// --- requests ---

type deletionRequestBody struct {
	TargetUserUID string `json:"target_user_uid" validate:"required"`
	Reason        string `json:"reason"          validate:"max=500"`
}

type addStaffRequestBody struct {
	Name            string `json:"name"             validate:"required,max=120"`
	StaffID         string `json:"staff_id"         validate:"required,len=6,numeric"`
	Role            string `json:"role"             validate:"required,oneof=supervisor staff"`
	InitialPassword string `json:"initial_password" validate:"omitempty,min=6"`
	Reason          string `json:"reason"           validate:"max=500"`
}

// declineRequestBody names the requester explicitly; without requester_uid
// no notification is sent.
type declineRequestBody struct {
	Feedback       string `json:"feedback"         validate:"max=500"`
	RequesterUID   string `json:"requester_uid"`
	TargetUserName string `json:"target_user_name"`
}

// --- sales ---

type quantitiesRequest struct {
	Burger int64 `json:"burger" validate:"gte=0"`
	Jumbo  int64 `json:"jumbo"  validate:"gte=0"`
	Family int64 `json:"family" validate:"gte=0"`
	Short  int64 `json:"short"  validate:"gte=0"`
}

type salesEntryRequest struct {
	Collected    quantitiesRequest `json:"collected"`
	SoldCash     quantitiesRequest `json:"sold_cash"`
	SoldTransfer quantitiesRequest `json:"sold_transfer"`
	SoldCard     quantitiesRequest `json:"sold_card"`
	Returned     quantitiesRequest `json:"returned"`
	Damages      quantitiesRequest `json:"damages"`
}

func (q quantitiesRequest) toDomain() domain.ProductQuantities {
	return domain.ProductQuantities{Burger: q.Burger, Jumbo: q.Jumbo, Family: q.Family, Short: q.Short}
}

func (r salesEntryRequest) toDomain() domain.SalesTotals {
	return domain.SalesTotals{
		Collected:    r.Collected.toDomain(),
		SoldCash:     r.SoldCash.toDomain(),
		SoldTransfer: r.SoldTransfer.toDomain(),
		SoldCard:     r.SoldCard.toDomain(),
		Returned:     r.Returned.toDomain(),
		Damages:      r.Damages.toDomain(),
	}
}
