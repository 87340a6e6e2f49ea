// pkg/schema/kinds.go
package schema

import (
	"errors"
	"fmt"
	"time"

	"github.com/northstar-data/retail-ingress/pkg/model"
	"github.com/northstar-data/retail-ingress/pkg/normalize"
)

// DefaultCountryCodes is the country-to-code lookup the pipeline operates
// with unless the caller supplies its own.
var DefaultCountryCodes = map[string]string{
	"Germany":        "DE",
	"United Kingdom": "GB",
	"United States":  "US",
}

// User returns the schema for user records (dim_users).
func User(countries map[string]string) *Schema {
	return MustNew(KindUser,
		[]Field{
			{Name: "index", Normalize: normalize.Lift(normalize.Index), Required: true},
			{Name: "first_name", Normalize: normalize.Lift(normalize.Name), Required: true},
			{Name: "last_name", Normalize: normalize.Lift(normalize.Name), Required: true},
			{Name: "date_of_birth", Normalize: normalize.Lift(normalize.Date), Required: true},
			{Name: "company", Normalize: normalize.Lift(normalize.FreeText), Required: true},
			{Name: "email_address", Normalize: normalize.Lift(normalize.Email), Required: true},
			{Name: "address", Normalize: normalize.Lift(normalize.Address), Required: true},
			{Name: "country", Normalize: normalize.CountryIn(countries), Required: true},
			{Name: "country_code", Normalize: normalize.Lift(normalize.CountryCode), Required: true},
			{Name: "phone_number", Normalize: normalize.Lift(normalize.Phone), Required: true},
			{Name: "join_date", Normalize: normalize.Lift(normalize.Date), Required: true},
			{Name: "user_uuid", Normalize: normalize.Lift(normalize.UUIDv4), Required: true},
		},
		countryCodeMatchesCountry(),
	)
}

// Payment returns the schema for payment card records (dim_card_details).
func Payment() *Schema {
	return MustNew(KindPayment,
		[]Field{
			{Name: "card_number", Normalize: normalize.Lift(normalize.CardNumber), Required: true},
			{Name: "expiry_date", Normalize: normalize.Lift(normalize.FreeText), Required: true},
			{Name: "card_provider", Normalize: normalize.Lift(normalize.FreeText), Required: true},
			{Name: "date_payment_confirmed", Normalize: normalize.Lift(normalize.Date), Required: true},
		},
	)
}

// Store returns the schema for store records (dim_store_details). Store
// rows carry a continent rather than a country, so the "GGB" country-code
// correction has no sibling field to confirm against and applies
// unconditionally here.
func Store() *Schema {
	return MustNew(KindStore,
		[]Field{
			{Name: "index", Normalize: normalize.Lift(normalize.Index), Required: true},
			{Name: "address", Normalize: normalize.Lift(normalize.Address), Required: true},
			{Name: "longitude", Normalize: normalize.Lift(normalize.Float)},
			{Name: "locality", Normalize: normalize.Lift(normalize.FreeText)},
			{Name: "store_code", Normalize: normalize.Lift(normalize.FreeText), Required: true},
			{Name: "staff_numbers", Normalize: normalize.Lift(normalize.StaffCount), Required: true},
			{Name: "opening_date", Normalize: normalize.Lift(normalize.Date), Required: true},
			{Name: "store_type", Normalize: normalize.Lift(normalize.FreeText), Required: true},
			{Name: "latitude", Normalize: normalize.Lift(normalize.Float)},
			{Name: "country_code", Normalize: normalize.Lift(normalize.CountryCode), Required: true},
			{Name: "continent", Normalize: normalize.Lift(normalize.FreeText), Required: true},
		},
	)
}

// Product returns the schema for product records (dim_products).
func Product() *Schema {
	return MustNew(KindProduct,
		[]Field{
			{Name: "product_name", Normalize: normalize.Lift(normalize.FreeText), Required: true},
			{Name: "product_price", Normalize: normalize.Lift(normalize.Money), Required: true},
			{Name: "weight", Normalize: normalize.Lift(normalize.Weight), Required: true},
			{Name: "category", Normalize: normalize.Lift(normalize.FreeText), Required: true},
			{Name: "EAN", Normalize: normalize.Lift(normalize.FreeText), Required: true},
			{Name: "date_added", Normalize: normalize.Lift(normalize.Date), Required: true},
			{Name: "uuid", Normalize: normalize.Lift(normalize.UUIDv4), Required: true},
			{Name: "removed", Normalize: normalize.Lift(normalize.FreeText), Required: true},
			{Name: "product_code", Normalize: normalize.Lift(normalize.FreeText), Required: true},
		},
	)
}

// Order returns the schema for order records (orders_table).
func Order() *Schema {
	return MustNew(KindOrder,
		[]Field{
			{Name: "date_uuid", Normalize: normalize.Lift(normalize.UUIDv4), Required: true},
			{Name: "user_uuid", Normalize: normalize.Lift(normalize.UUIDv4), Required: true},
			{Name: "card_number", Normalize: normalize.Lift(normalize.CardNumber), Required: true},
			{Name: "store_code", Normalize: normalize.Lift(normalize.FreeText), Required: true},
			{Name: "product_code", Normalize: normalize.Lift(normalize.FreeText), Required: true},
			{Name: "product_quantity", Normalize: normalize.Lift(normalize.Index), Required: true},
		},
		CrossRule{
			Name:      "product_quantity_positive",
			Field:     "product_quantity",
			DependsOn: []string{"product_quantity"},
			Check: func(normalized map[string]interface{}, _ model.Record) error {
				if qty, ok := normalized["product_quantity"].(int64); ok && qty <= 0 {
					return fmt.Errorf("quantity %d is not positive", qty)
				}
				return nil
			},
		},
	)
}

// DateDimension returns the schema for date-dimension records
// (dim_date_times).
func DateDimension() *Schema {
	return MustNew(KindDateDimension,
		[]Field{
			{Name: "timestamp", Normalize: normalize.Lift(normalize.Timestamp), Required: true},
			{Name: "month", Normalize: normalize.Lift(normalize.Index), Required: true},
			{Name: "year", Normalize: normalize.Lift(normalize.Index), Required: true},
			{Name: "day", Normalize: normalize.Lift(normalize.Index), Required: true},
			{Name: "time_period", Normalize: normalize.Lift(normalize.FreeText), Required: true},
			{Name: "date_uuid", Normalize: normalize.Lift(normalize.UUIDv4), Required: true},
		},
		CrossRule{
			Name:      "real_calendar_date",
			Field:     "day",
			DependsOn: []string{"day", "month", "year"},
			Check: func(normalized map[string]interface{}, _ model.Record) error {
				day, _ := normalized["day"].(int64)
				month, _ := normalized["month"].(int64)
				year, _ := normalized["year"].(int64)
				if month < 1 || month > 12 {
					return fmt.Errorf("month %d out of range", month)
				}
				d := time.Date(int(year), time.Month(month), int(day), 0, 0, 0, 0, time.UTC)
				if int64(d.Day()) != day || int64(d.Month()) != month {
					return fmt.Errorf("day %d does not exist in %d-%02d", day, year, month)
				}
				return nil
			},
		},
	)
}

// countryCodeMatchesCountry confirms the "GGB" typo correction against the
// sibling country field: the raw code "GGB" is only accepted when the row's
// country really is the United Kingdom.
func countryCodeMatchesCountry() CrossRule {
	return CrossRule{
		Name:      "country_code_matches_country",
		Field:     "country_code",
		DependsOn: []string{"country", "country_code"},
		Check: func(normalized map[string]interface{}, raw model.Record) error {
			rawCode, _ := raw["country_code"].(string)
			if rawCode != "GGB" {
				return nil
			}
			if country, _ := normalized["country"].(string); country != "United Kingdom" {
				return errors.New(`"GGB" correction requires country "United Kingdom"`)
			}
			return nil
		},
	}
}
