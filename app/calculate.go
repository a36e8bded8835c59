package app

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/apperrors"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/date"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/fx"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/log"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/portfolio"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/tax"
)

// Request is the calculation input from the UI/API boundary. Transactions
// may arrive pre-parsed as rows, or as a raw CSV/QFX file payload; exactly
// one of the two should be set.
type Request struct {
	Transactions []portfolio.RawRow `json:"transactions,omitempty"`
	File         string             `json:"file,omitempty"`

	TaxYear              string          `json:"taxYear"`
	Residency            string          `json:"residency"`
	DateOfBirth          string          `json:"dateOfBirth,omitempty"`
	OtherTaxableIncome   decimal.Decimal `json:"otherTaxableIncome,omitempty"`
	CharitableDonations  decimal.Decimal `json:"charitableDonations,omitempty"`
	CarriedForwardLosses decimal.Decimal `json:"carriedForwardLosses,omitempty"`

	// Overrides DefaultFieldMapping for non-standard broker headers.
	FieldMapping portfolio.FieldMapping `json:"fieldMapping,omitempty"`
}

func (r *Request) config() (tax.Config, []apperrors.RowError) {
	var errs []apperrors.RowError

	year, err := date.ParseTaxYear(r.TaxYear)
	if err != nil {
		errs = append(errs, apperrors.Validationf(0, "%v", err))
	}
	residency := tax.Residency(r.Residency)
	if residency == "" {
		residency = tax.ResidencyEnglandWalesNI
	}

	var dob date.Date
	if r.DateOfBirth != "" {
		dob, err = date.ParseAny(r.DateOfBirth)
		if err != nil {
			errs = append(errs, apperrors.Validationf(0, "invalid dateOfBirth: %v", err))
		}
	}
	if r.CarriedForwardLosses.IsNegative() {
		errs = append(errs, apperrors.Validationf(0,
			"carriedForwardLosses must not be negative, got %s", r.CarriedForwardLosses))
	}
	if r.CharitableDonations.IsNegative() {
		errs = append(errs, apperrors.Validationf(0,
			"charitableDonations must not be negative, got %s", r.CharitableDonations))
	}

	return tax.Config{
		Year:                 year,
		Residency:            residency,
		DateOfBirth:          dob,
		OtherTaxableIncome:   r.OtherTaxableIncome,
		CharitableDonations:  r.CharitableDonations,
		CarriedForwardLosses: r.CarriedForwardLosses,
	}, errs
}

// Calculate runs the full pipeline: normalize -> ledger replay -> disposal
// matching -> dividend aggregation -> liability. It is a single
// deterministic pass with no shared state; concurrent calls are safe.
// Any validation failure halts the pipeline with the collected errors and
// no partial report. A violated internal invariant panics somewhere below;
// it is recovered here, logged with context, and reported generically.
func Calculate(req *Request, rates fx.RateSource) (report *tax.LiabilityReport, errList *apperrors.ErrorList) {
	defer func() {
		if r := recover(); r != nil {
			log.L.Error("Calculation invariant failure",
				"panic", fmt.Sprint(r), "taxYear", req.TaxYear)
			report = nil
			errList = &apperrors.ErrorList{}
			errList.Add(apperrors.Computation())
		}
	}()

	errList = &apperrors.ErrorList{}

	cfg, cfgErrs := req.config()
	errList.Add(cfgErrs...)

	rows := req.Transactions
	if req.File != "" {
		var readErrs []apperrors.RowError
		rows, readErrs = portfolio.ReadRows([]byte(req.File))
		errList.Add(readErrs...)
	}

	txs, normErrs := portfolio.Normalize(rows, req.FieldMapping)
	errList.Add(normErrs...)
	if !errList.Empty() {
		return nil, errList
	}

	conv := fx.NewConverter(rates)

	replay, replayErrs := portfolio.ReplayTxs(txs, conv)
	errList.Add(replayErrs...)

	dividends, divErrs := portfolio.AggregateDividends(txs, conv)
	errList.Add(divErrs...)
	if !errList.Empty() {
		return nil, errList
	}

	report, err := tax.ComputeLiability(replay, dividends, cfg)
	if err != nil {
		errList.Add(apperrors.Validationf(0, "%v", err))
		return nil, errList
	}

	log.L.Debug("Calculation complete",
		"taxYear", cfg.Year.String(),
		"disposals", len(report.Disposals),
		"dividends", len(report.Dividends),
		"totalTaxLiability", report.TotalTaxLiability.String())
	return report, nil
}
