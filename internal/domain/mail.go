package domain

const (
	MailTypeShiftOffer      = "shift_offer"
	MailTypeUnfillableAlert = "unfillable_alert"
)

type MailMessage struct {
	Type    string `json:"type"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Data    any    `json:"data"`
}

// OfferedShift 邮件中的一行班次
type OfferedShift struct {
	Department string `json:"department"`
	Role       string `json:"role"`
	Day        string `json:"day"` // 例如 "Mon-Wk1"
	Date       string `json:"date"`
	Time       string `json:"time"`
}

type ShiftOfferMailData struct {
	FirstName string         `json:"firstName"`
	Shifts    []OfferedShift `json:"shifts"`
}

type UnfillableAlertMailData struct {
	Shift      OfferedShift `json:"shift"`
	Location   string       `json:"location"`
	Difficulty float64      `json:"difficulty"`
	Reasons    []string     `json:"reasons"`
}
