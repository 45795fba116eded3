package models

// Tournament группирует матчи и участников ставок.
type Tournament struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}
