package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Strategy struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Rules       *string   `json:"rules,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type StrategyInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Rules       *string `json:"rules,omitempty"`
}

func (in *StrategyInput) Validate() error {
	var errs ValidationErrors
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		errs.Add("name", "Strategy name is required")
	case len(name) > 100:
		errs.Add("name", "Strategy name is too long")
	}
	if in.Description != nil && len(*in.Description) > 500 {
		errs.Add("description", "Description is too long")
	}
	checkText(&errs, "rules", in.Rules, "Rules are too long")
	return errs.OrNil()
}
