package entity

type Notification struct {
	ID       int64  `json:"notification_id"`
	Message  string `json:"message"`
	SentDate string `json:"sent_date"`
	IsRead   bool   `json:"is_read"`
}

type FAQ struct {
	ID          int64  `json:"faq_id"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	CreatedBy   int64  `json:"created_by,omitempty"`
	CreatedDate string `json:"created_date,omitempty"`
}
