// Package source reads canonical transactions from YAML documents. It stands
// in for the external importer that normalizes platform exports.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bertsdev33/himata-sub000/internal/domain"
	"github.com/bertsdev33/himata-sub000/pkg/constants"
	"github.com/bertsdev33/himata-sub000/pkg/format"
	"gopkg.in/yaml.v3"
)

// Document is the YAML layout of a transaction file.
type Document struct {
	Listings     []domain.ListingRef `yaml:"listings"`
	Transactions []Record            `yaml:"transactions"`
}

// Record is one transaction as written in YAML. Amounts are major-unit
// decimal strings in the record's currency.
type Record struct {
	ID          string `yaml:"id"`
	Kind        string `yaml:"kind"`
	Dataset     string `yaml:"dataset,omitempty"`
	Date        string `yaml:"date,omitempty"`
	Listing     string `yaml:"listing,omitempty"`
	Account     string `yaml:"account,omitempty"`
	Currency    string `yaml:"currency"`
	Gross       string `yaml:"gross,omitempty"`
	Net         string `yaml:"net,omitempty"`
	CleaningFee string `yaml:"cleaningFee,omitempty"`
	ServiceFee  string `yaml:"serviceFee,omitempty"`
	CheckIn     string `yaml:"checkIn,omitempty"`
	CheckOut    string `yaml:"checkOut,omitempty"`
	Nights      int64  `yaml:"nights,omitempty"`
}

// LoadFile reads transactions from a YAML file.
func LoadFile(path string) ([]domain.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transactions file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Load(f)
}

// Load decodes a YAML document and converts its records, preserving order.
func Load(r io.Reader) ([]domain.Transaction, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse transactions: %w", err)
	}
	return doc.ToTransactions()
}

// ToTransactions converts every record of the document.
func (d Document) ToTransactions() ([]domain.Transaction, error) {
	listings := make(map[string]domain.ListingRef, len(d.Listings))
	for _, l := range d.Listings {
		listings[l.ListingID] = l
	}

	txs := make([]domain.Transaction, 0, len(d.Transactions))
	for i, rec := range d.Transactions {
		tx, err := rec.toTransaction(listings)
		if err != nil {
			return nil, fmt.Errorf("transaction %d (%s): %w", i, rec.ID, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (r Record) toTransaction(listings map[string]domain.ListingRef) (domain.Transaction, error) {
	currency := domain.NormalizeCurrency(r.Currency)
	tx := domain.Transaction{
		ID:          strings.TrimSpace(r.ID),
		Kind:        domain.Kind(strings.TrimSpace(r.Kind)),
		DatasetKind: domain.DatasetRealized,
	}

	switch strings.ToLower(strings.TrimSpace(r.Dataset)) {
	case "", string(domain.DatasetRealized):
	case string(domain.DatasetUpcoming):
		tx.DatasetKind = domain.DatasetUpcoming
	default:
		return tx, fmt.Errorf("unknown dataset %q", r.Dataset)
	}

	var err error
	if tx.OccurredOn, err = parseDate(r.Date); err != nil {
		return tx, err
	}

	if id := strings.TrimSpace(r.Listing); id != "" || r.Account != "" {
		ref, ok := listings[id]
		if !ok {
			ref = domain.ListingRef{ListingID: id}
		}
		if r.Account != "" {
			ref.AccountID = r.Account
		}
		tx.Listing = &ref
	}

	amounts := []struct {
		raw string
		dst *domain.Money
	}{
		{r.Gross, &tx.Gross},
		{r.Net, &tx.Net},
		{r.CleaningFee, &tx.CleaningFee},
		{r.ServiceFee, &tx.ServiceFee},
	}
	for _, a := range amounts {
		minor, err := format.ParseMajor(a.raw, currency)
		if err != nil {
			return tx, err
		}
		*a.dst = domain.NewMoney(minor, currency)
	}

	if r.CheckIn != "" || r.CheckOut != "" {
		stay := &domain.Stay{Nights: r.Nights}
		if stay.CheckIn, err = parseDate(r.CheckIn); err != nil {
			return tx, err
		}
		if stay.CheckOut, err = parseDate(r.CheckOut); err != nil {
			return tx, err
		}
		tx.Stay = stay
	}

	return tx, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(constants.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t, nil
}
