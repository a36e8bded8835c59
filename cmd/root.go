package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/app"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/fx"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/log"
	ptf "github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/portfolio"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/tax"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/util"
)

var Verbose = false
var TaxYearOpt string
var ResidencyOpt string
var DateOfBirthOpt string
var OtherIncomeOpt string
var DonationsOpt string
var CarriedLossesOpt string
var RatesFileOpt string

func parseAmountOpt(name, val string) decimal.Decimal {
	if val == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid --%s value '%s'\n", name, val)
		os.Exit(1)
	}
	return d
}

func runRootCmd(cmd *cobra.Command, args []string) {
	log.InitText(util.Tern(Verbose, "debug", "warn"))

	rates, err := fx.LoadRatesFile(RatesFileOpt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading rates file: %v\n", err)
		os.Exit(1)
	}

	allRows := make([]ptf.RawRow, 0, 20)
	for _, fileName := range args {
		contents, err := os.ReadFile(fileName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", fileName, err)
			os.Exit(1)
		}
		rows, rowErrs := ptf.ReadRows(contents)
		for _, re := range rowErrs {
			fmt.Fprintf(os.Stderr, "%s: %v\n", fileName, re)
		}
		if len(rowErrs) > 0 {
			os.Exit(1)
		}
		allRows = append(allRows, rows...)
	}

	req := &app.Request{
		Transactions:         allRows,
		TaxYear:              TaxYearOpt,
		Residency:            ResidencyOpt,
		DateOfBirth:          DateOfBirthOpt,
		OtherTaxableIncome:   parseAmountOpt("other-income", OtherIncomeOpt),
		CharitableDonations:  parseAmountOpt("donations", DonationsOpt),
		CarriedForwardLosses: parseAmountOpt("carried-losses", CarriedLossesOpt),
	}

	report, errList := app.Calculate(req, rates)
	if errList != nil && !errList.Empty() {
		for _, e := range errList.Errors {
			fmt.Fprintf(os.Stderr, "Error: %v\n", e)
		}
		os.Exit(1)
	}

	renderReport(report)
}

func renderReport(report *tax.LiabilityReport) {
	fmt.Printf("Tax year %s (%s)\n\n", report.TaxYear, report.Residency)

	fmt.Println("Disposals")
	ptf.RenderDisposals(os.Stdout, report.Disposals)
	fmt.Println("")

	fmt.Println("Dividends")
	ptf.RenderDividends(os.Stdout, report.Dividends)
	fmt.Println("")

	fmt.Println("Holdings at end of data")
	ptf.RenderHoldings(os.Stdout, report.Holdings)
	fmt.Println("")

	fmt.Printf("Net gain:                   %s\n", report.NetGain)
	fmt.Printf("Losses b/f used:            %s\n", report.LossesBroughtForwardUsed)
	fmt.Printf("Annual exempt amount used:  %s\n", report.AnnualExemptAmountUsed)
	fmt.Printf("Taxable gain:               %s\n", report.TaxableGain)
	fmt.Printf("CGT due:                    %s\n", report.CGTDue)
	fmt.Printf("Dividend tax due:           %s\n", report.DividendTaxDue)
	fmt.Printf("Total tax liability:        %s\n", report.TotalTaxLiability)
	fmt.Printf("Losses carried forward:     %s\n", report.LossesCarriedForward)
}

func cmdName() string {
	binName := os.Args[0]
	return filepath.Base(binName)
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   cmdName() + " [TRANSACTION_FILE ...]",
	Short: "UK capital gains and dividend tax calculation tool",
	Long: `A cli tool which calculates UK capital gains tax and dividend tax from
broker transaction exports (CSV or QFX/OFX).

Disposals are matched under the same-day rule first, then against the
section 104 pooled average cost of the holding. All amounts are reported
in GBP; transactions in other currencies need an exchange rate column or
a rates file passed with --rates.

Exchange rates are always provided to be multiplied with the given amount
to produce the equivalent value in GBP.`,
	Run:  runRootCmd,
	Args: cobra.MinimumNArgs(1),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false,
		"Print verbose output")
	RootCmd.Flags().StringVarP(&TaxYearOpt, "tax-year", "y", "",
		"Tax year to report on, eg. 2023/24")
	RootCmd.Flags().StringVar(&ResidencyOpt, "residency", "",
		"Residency for rate selection: englandWalesNI (default) or scotland")
	RootCmd.Flags().StringVar(&DateOfBirthOpt, "date-of-birth", "",
		"Date of birth, eg. 1980-06-15")
	RootCmd.Flags().StringVar(&OtherIncomeOpt, "other-income", "",
		"Other taxable income for the year in GBP, before the personal allowance")
	RootCmd.Flags().StringVar(&DonationsOpt, "donations", "",
		"Gift aid charitable donations in GBP (net amount paid)")
	RootCmd.Flags().StringVar(&CarriedLossesOpt, "carried-losses", "",
		"Capital losses brought forward from earlier years in GBP")
	RootCmd.PersistentFlags().StringVar(&RatesFileOpt, "rates", "",
		"Path to an exchange rates file (csv or json), used for rows without "+
			"an explicit exchange rate")
}
