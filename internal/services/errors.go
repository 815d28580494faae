package services

import (
	"errors"
	"fmt"

	"equiploan/internal/validate"
)

// User-facing errors. The text is what the borrower or staff member sees.
var (
	ErrNotLoggedIn          = errors.New("กรุณาเข้าสู่ระบบก่อนทำรายการ")
	ErrForbidden            = errors.New("คุณไม่มีสิทธิ์ดำเนินการนี้")
	ErrBadCreds             = errors.New("อีเมลหรือรหัสผ่านไม่ถูกต้อง")
	ErrTimeConflict         = errors.New("อุปกรณ์นี้ถูกจองหรือยืมในช่วงเวลาดังกล่าวแล้ว")
	ErrSpecialLoanConflict  = errors.New("อุปกรณ์นี้ถูกกันไว้สำหรับการยืมพิเศษในช่วงเวลาดังกล่าว")
	ErrConflictCheckFailed  = errors.New("ไม่สามารถตรวจสอบความพร้อมของอุปกรณ์ได้ กรุณาลองใหม่")
	ErrAlreadyProcessed     = errors.New("คำขอนี้ได้รับการดำเนินการแล้ว")
	ErrLoanNotFound         = errors.New("ไม่พบคำขอยืม")
	ErrReservationNotFound  = errors.New("ไม่พบการจอง")
	ErrEquipmentNotFound    = errors.New("ไม่พบอุปกรณ์")
	ErrInvalidDateRange     = errors.New("วันที่คืนต้องไม่ก่อนวันที่ยืม")
	ErrInvalidTransition    = errors.New("ไม่สามารถเปลี่ยนสถานะการจองได้")
	ErrEquipmentUnavailable = errors.New("อุปกรณ์ไม่พร้อมให้ยืม")
	ErrCartEmpty            = errors.New("ตะกร้าว่างเปล่า")
	ErrItemsUnavailable     = errors.New("มีอุปกรณ์บางรายการไม่พร้อมให้ยืม กรุณานำออกจากตะกร้า")
	ErrReviewRequired       = errors.New("กรุณาตรวจสอบรายการก่อนยืนยัน")
	ErrSaveFailed           = errors.New("เกิดข้อผิดพลาดในการบันทึกข้อมูล กรุณาลองใหม่")
)

// TypeConflictError means the user already holds an active item of the same equipment type.
type TypeConflictError struct{ TypeName string }

func (e *TypeConflictError) Error() string {
	if e.TypeName == "" {
		return "คุณมีการยืมหรือจองอุปกรณ์ประเภทนี้อยู่แล้ว"
	}
	return fmt.Sprintf("คุณมีการยืมหรือจองอุปกรณ์ประเภท %s อยู่แล้ว", e.TypeName)
}

// ValidationError is returned before any storage call when input is missing or malformed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, msg string) error { return &ValidationError{Field: field, Message: msg} }

var userFacing = []error{
	ErrNotLoggedIn, ErrForbidden, ErrBadCreds, ErrTimeConflict, ErrSpecialLoanConflict,
	ErrConflictCheckFailed, ErrAlreadyProcessed, ErrLoanNotFound, ErrReservationNotFound,
	ErrEquipmentNotFound, ErrInvalidDateRange, ErrInvalidTransition, ErrEquipmentUnavailable,
	ErrCartEmpty, ErrItemsUnavailable, ErrReviewRequired, ErrSaveFailed,
}

// UserMessage maps any service error to the short message shown to the caller.
// Storage and transport details never leak; they collapse to ErrSaveFailed.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var tc *TypeConflictError
	if errors.As(err, &tc) {
		return tc.Error()
	}
	for _, known := range userFacing {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return ErrSaveFailed.Error()
}

// IsUserError reports whether err is one of the expected, user-caused failures (as opposed
// to an internal fault worth logging at error level).
func IsUserError(err error) bool {
	var ve *ValidationError
	var tc *TypeConflictError
	if errors.As(err, &ve) || errors.As(err, &tc) {
		return true
	}
	for _, known := range userFacing {
		if known != ErrSaveFailed && errors.Is(err, known) {
			return true
		}
	}
	return false
}

var fieldMessages = map[string]string{
	"EquipmentID":   "กรุณาเลือกอุปกรณ์",
	"LoanID":        "ไม่พบคำขอยืม",
	"ReservationID": "ไม่พบการจอง",
	"Reason":        "กรุณาระบุเหตุผล",
	"IDs":           "กรุณาเลือกรายการอย่างน้อยหนึ่งรายการ",
	"Mode":          "กรุณาเลือกรูปแบบการยืม",
	"StartDate":     "กรุณาระบุวันที่เริ่มต้น",
	"PickupTime":    "กรุณาระบุเวลารับอุปกรณ์",
	"EndDate":       "กรุณาระบุวันที่คืน",
	"ReturnTime":    "กรุณาระบุเวลาคืน",
	"Start":         "กรุณาระบุวันที่เริ่มต้น",
	"End":           "กรุณาระบุวันที่คืน",
	"TargetType":    "ประเภทรายการไม่ถูกต้อง",
}

// checkStruct runs the struct tags of a command and converts the first failure into a
// ValidationError naming the field.
func checkStruct(v any) error {
	field, _, ok := validate.Struct(v)
	if ok {
		return nil
	}
	msg, known := fieldMessages[field]
	if !known {
		msg = "ข้อมูลไม่ถูกต้อง"
	}
	return invalid(field, msg)
}
