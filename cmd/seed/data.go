package main

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/kode4food/renewal/internal/retrieval"
	"github.com/kode4food/renewal/pkg/api"
)

type (
	dataset struct {
		Customers    []customer                  `yaml:"customers"`
		Policies     []policy                    `yaml:"policies"`
		Interactions []interaction               `yaml:"interactions"`
		Collections  map[string][]collectionItem `yaml:"collections"`
	}

	customer struct {
		ID       string      `yaml:"id"`
		Name     string      `yaml:"name"`
		City     string      `yaml:"city"`
		Channel  api.Channel `yaml:"channel"`
		Language string      `yaml:"language"`
		Segment  string      `yaml:"segment"`
		Age      int         `yaml:"age"`
	}

	policy struct {
		FundValue  *float64 `yaml:"fund_value"`
		ID         string   `yaml:"id"`
		Customer   string   `yaml:"customer"`
		Type       string   `yaml:"type"`
		Due        string   `yaml:"due"`
		Mode       string   `yaml:"mode"`
		SumAssured float64  `yaml:"sum_assured"`
		Premium    float64  `yaml:"premium"`
	}

	interaction struct {
		Policy    string        `yaml:"policy"`
		Channel   api.Channel   `yaml:"channel"`
		Direction api.Direction `yaml:"direction"`
		Content   string        `yaml:"content"`
		Sentiment float64       `yaml:"sentiment"`
	}

	collectionItem struct {
		ID       string             `yaml:"id"`
		Text     string             `yaml:"text"`
		Metadata retrieval.Metadata `yaml:"metadata"`
	}
)

const activeStatus = "ACTIVE"

var (
	ErrEmptyDataset      = errors.New("seed dataset is empty")
	ErrUnknownCustomer   = errors.New("policy references unknown customer")
	ErrUnknownPolicy     = errors.New("interaction references unknown policy")
	ErrUnknownChannel    = errors.New("unknown channel")
	ErrUnknownCollection = errors.New("unknown collection")
)

//go:embed seed.yaml
var defaultDataset []byte

func parseDataset(data []byte) (*dataset, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDataset
	}
	var res dataset
	if err := yaml.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	if err := res.validate(); err != nil {
		return nil, err
	}
	return &res, nil
}

func (d *dataset) validate() error {
	customers := map[string]bool{}
	for _, c := range d.Customers {
		if !c.Channel.IsKnown() {
			return fmt.Errorf("%w: %s (%s)", ErrUnknownChannel, c.Channel, c.ID)
		}
		customers[c.ID] = true
	}

	policies := map[string]bool{}
	for _, p := range d.Policies {
		if !customers[p.Customer] {
			return fmt.Errorf("%w: %s (%s)",
				ErrUnknownCustomer, p.Customer, p.ID,
			)
		}
		policies[p.ID] = true
	}

	for _, in := range d.Interactions {
		if !policies[in.Policy] {
			return fmt.Errorf("%w: %s", ErrUnknownPolicy, in.Policy)
		}
		if !in.Channel.IsKnown() {
			return fmt.Errorf("%w: %s", ErrUnknownChannel, in.Channel)
		}
	}

	for name := range d.Collections {
		if !slices.Contains(retrieval.Collections, name) {
			return fmt.Errorf("%w: %s", ErrUnknownCollection, name)
		}
	}
	return nil
}

func (c customer) record() *api.Customer {
	return &api.Customer{
		CustomerID:        c.ID,
		Name:              c.Name,
		Age:               c.Age,
		City:              c.City,
		PreferredChannel:  c.Channel,
		PreferredLanguage: c.Language,
		Segment:           c.Segment,
	}
}

func (p policy) record() *api.Policy {
	return &api.Policy{
		PolicyID:       p.ID,
		CustomerID:     p.Customer,
		PolicyType:     p.Type,
		SumAssured:     p.SumAssured,
		AnnualPremium:  p.Premium,
		PremiumDueDate: p.Due,
		PaymentMode:    p.Mode,
		FundValue:      p.FundValue,
		Status:         activeStatus,
	}
}
