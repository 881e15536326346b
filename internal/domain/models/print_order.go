package models

import "time"

// PrintStatus - статус заказа на печать
type PrintStatus string

const (
	PrintPending    PrintStatus = "pending"
	PrintInProgress PrintStatus = "in_progress"
	PrintDone       PrintStatus = "done"
)

func (s PrintStatus) Valid() bool {
	switch s {
	case PrintPending, PrintInProgress, PrintDone:
		return true
	}
	return false
}

// PrintOrder представляет документ, отправленный студентом на печать
type PrintOrder struct {
	ID            int64       `json:"id"`
	StudentID     int64       `json:"student_id"`
	VendorID      *int64      `json:"vendor_id,omitempty"` // nil - заказ ещё никому не назначен
	Document      string      `json:"document"`
	Status        PrintStatus `json:"status"`
	ScheduledTime *time.Time  `json:"scheduled_time,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Unassigned сообщает, может ли продавец забрать заказ себе
func (o *PrintOrder) Unassigned() bool {
	return o.VendorID == nil && o.Status == PrintPending
}

// PrintOrderStats - счётчики для панели студента или продавца
type PrintOrderStats struct {
	Total      int `json:"total_orders"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}
