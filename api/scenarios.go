/*
scenarios.go - Demo charge version years

PURPOSE:
  Stages ready-made inputs so the two-part tariff endpoints can be tried
  without assembling a charge version by hand. Each scenario stages one
  charge version for financial year 2019 (April 2018 to March 2019).

AVAILABLE SCENARIOS:
  within-allowance:  one spray irrigation element, returns under the limit
  over-abstraction:  supported and unsupported elements, returns over both
  account-change:    invoice account changes on 1 July
  returns-due:       one return still due, nothing can be billed

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "over-abstraction"}

  then
  POST /api/charge-versions/{chargeVersionId}/years/2019/two-part-tariff

NOTE:
  Loading a scenario replaces any input staged for the same charge version
  year. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
  - factory/input.go: input JSON definitions
*/
package api

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/DEFRA/water-abstraction-service-sub002/factory"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

const scenarioYear = 2019

var scenarios = []ScenarioDTO{
	{
		ID:              "within-allowance",
		Name:            "Within Allowance",
		Description:     "100 Ml spray irrigation, 35 Ml abstracted over the summer",
		ChargeVersionID: "cv-demo-within",
		FinancialYear:   scenarioYear,
	},
	{
		ID:              "over-abstraction",
		Name:            "Over Abstraction",
		Description:     "Supported 20 Ml and unsupported 30 Ml elements, 70 Ml abstracted",
		ChargeVersionID: "cv-demo-over",
		FinancialYear:   scenarioYear,
	},
	{
		ID:              "account-change",
		Name:            "Invoice Account Change",
		Description:     "Invoice account changes on 1 July 2018, readings split by date",
		ChargeVersionID: "cv-demo-account",
		FinancialYear:   scenarioYear,
	},
	{
		ID:              "returns-due",
		Name:            "Returns Due",
		Description:     "One of two returns is still due",
		ChargeVersionID: "cv-demo-due",
		FinancialYear:   scenarioYear,
	},
}

func findScenario(id string) (ScenarioDTO, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return ScenarioDTO{}, false
}

// scenarioInput builds the staged JSON for a scenario.
func scenarioInput(s ScenarioDTO) (factory.InputJSON, error) {
	in := baseInput(s.ChargeVersionID)

	switch s.ID {
	case "within-allowance":
		in.ChargeElements = []factory.ChargeElementJSON{
			sprayElement("el-spray", "unsupported", "100"),
		}
		in.Returns = []factory.ReturnJSON{monthlyReturn("ret-1", "completed", "5000")}

	case "over-abstraction":
		in.ChargeElements = []factory.ChargeElementJSON{
			sprayElement("el-supported", "supported", "20"),
			sprayElement("el-unsupported", "unsupported", "30"),
		}
		in.Returns = []factory.ReturnJSON{monthlyReturn("ret-1", "completed", "10000")}

	case "account-change":
		in.InvoiceAccountRoles = []factory.InvoiceAccountJSON{
			{
				PeriodJSON:           factory.PeriodJSON{StartDate: "2010-04-01", EndDate: "2018-06-30"},
				InvoiceAccountID:     "ia-demo-1",
				InvoiceAccountNumber: "A00000001A",
			},
			{
				PeriodJSON:           factory.PeriodJSON{StartDate: "2018-07-01"},
				InvoiceAccountID:     "ia-demo-2",
				InvoiceAccountNumber: "A00000002A",
			},
		}
		in.ChargeElements = []factory.ChargeElementJSON{
			sprayElement("el-spray", "unsupported", "214"),
		}
		in.Returns = []factory.ReturnJSON{monthlyReturn("ret-1", "completed", "10000")}

	case "returns-due":
		in.ChargeElements = []factory.ChargeElementJSON{
			sprayElement("el-spray", "unsupported", "50"),
		}
		in.Returns = []factory.ReturnJSON{
			monthlyReturn("ret-1", "completed", "1000"),
			monthlyReturn("ret-2", "due", ""),
		}

	default:
		return factory.InputJSON{}, fmt.Errorf("unknown scenario: %s", s.ID)
	}
	return in, nil
}

// =============================================================================
// BUILDERS
// =============================================================================

var summerPeriod = factory.AbstractionPeriodJSON{StartDay: 1, StartMonth: 4, EndDay: 31, EndMonth: 10}

func baseInput(chargeVersionID string) factory.InputJSON {
	return factory.InputJSON{
		ChargeVersion: &factory.ChargeVersionJSON{
			ID:         chargeVersionID,
			LicenceRef: "03/28/01/0042",
			PeriodJSON: factory.PeriodJSON{StartDate: "2018-04-01"},
		},
		FinancialYear: scenarioYear,
		LicenceHolderRoles: []factory.LicenceHolderJSON{{
			PeriodJSON:  factory.PeriodJSON{StartDate: "2010-04-01"},
			CompanyID:   "co-demo",
			CompanyName: "Big Farm Co Ltd",
		}},
		InvoiceAccountRoles: []factory.InvoiceAccountJSON{{
			PeriodJSON:           factory.PeriodJSON{StartDate: "2010-04-01"},
			InvoiceAccountID:     "ia-demo-1",
			InvoiceAccountNumber: "A00000001A",
			CompanyID:            "co-demo",
		}},
		Agreements: []factory.AgreementJSON{{
			Code:       "S127",
			PeriodJSON: factory.PeriodJSON{StartDate: "2015-04-01"},
		}},
	}
}

func sprayElement(id, source, authorised string) factory.ChargeElementJSON {
	return factory.ChargeElementJSON{
		ID:                       id,
		Description:              "Spray irrigation",
		PurposePrimary:           "A",
		PurposeSecondary:         "AGR",
		PurposeTertiary:          "400",
		Source:                   source,
		Season:                   "summer",
		Loss:                     "high",
		AbstractionPeriod:        summerPeriod,
		AuthorisedAnnualQuantity: decimal.RequireFromString(authorised),
	}
}

// monthlyReturn has one line per month from April to October 2018, each
// with the given cubic metres. An empty quantity leaves the lines out.
func monthlyReturn(id, status, cubicMetres string) factory.ReturnJSON {
	r := factory.ReturnJSON{
		ID:                id,
		Status:            status,
		Purposes:          []string{"400"},
		AbstractionPeriod: summerPeriod,
		PeriodJSON:        factory.PeriodJSON{StartDate: "2018-04-01", EndDate: "2019-03-31"},
	}
	if cubicMetres == "" {
		return r
	}
	monthEnds := []string{"04-30", "05-31", "06-30", "07-31", "08-31", "09-30", "10-31"}
	for i, end := range monthEnds {
		r.Lines = append(r.Lines, factory.ReturnLineJSON{
			PeriodJSON: factory.PeriodJSON{
				StartDate: fmt.Sprintf("2018-%02d-01", i+4),
				EndDate:   "2018-" + end,
			},
			Quantity: decimal.NewNullDecimal(decimal.RequireFromString(cubicMetres)),
		})
	}
	return r
}
