package insee

import (
	"fmt"
	"math"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/adeilh/go-insee/timeseries"
)

// ValidationError reports a dataset whose shape does not hold. Err aggregates
// every offending field.
type ValidationError struct {
	Dataset string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("insee: invalid %s: %v", e.Dataset, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(dataset string, errs *multierror.Error) error {
	if errs.ErrorOrNil() == nil {
		return nil
	}
	return &ValidationError{Dataset: dataset, Err: errs}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// ValidateSeries checks that every point carries a parseable date and a
// finite value. An empty series is valid.
func ValidateSeries(dataset string, s timeseries.Series) error {
	var errs *multierror.Error
	for i, p := range s {
		if _, err := timeseries.ParseDate(p.Date); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("point %d: bad date %q", i, p.Date))
		}
		if !finite(p.Value) {
			errs = multierror.Append(errs, fmt.Errorf("point %d: value is not finite", i))
		}
	}
	return invalid(dataset, errs)
}

func ValidateFrancePopulation(points []FrancePopulationPoint) error {
	var errs *multierror.Error
	for i, p := range points {
		if p.Year <= 0 {
			errs = multierror.Append(errs, fmt.Errorf("point %d: missing year", i))
		}
		if !finite(p.Population) || p.Population <= 0 {
			errs = multierror.Append(errs, fmt.Errorf("point %d: population must be positive", i))
		}
	}
	return invalid("france population", errs)
}

// ValidateAgeShares checks that shares are percentages.
func ValidateAgeShares(rows []FranceAgeShares) error {
	var errs *multierror.Error
	for i, r := range rows {
		for _, v := range []float64{r.Age0To19, r.Age20To39, r.Age40To59, r.Age60To74, r.Age75Plus} {
			if !finite(v) || v < 0 || v > 100 {
				errs = multierror.Append(errs, fmt.Errorf("row %d: share %v out of range", i, v))
			}
		}
	}
	return invalid("france age groups", errs)
}

func ValidateAgeGroups(rows []AgeGroupShares) error {
	var errs *multierror.Error
	for i, r := range rows {
		if r.Date == "" {
			errs = multierror.Append(errs, fmt.Errorf("row %d: missing date", i))
		}
		for _, v := range []float64{r.G0To14, r.G15To29, r.G30To44, r.G45To59, r.G60Plus} {
			if !finite(v) || v < 0 || v > 100 {
				errs = multierror.Append(errs, fmt.Errorf("row %d: share %v out of range", i, v))
			}
		}
	}
	return invalid("age groups", errs)
}

func ValidateForeignPopulation(points []ForeignPopulationPoint) error {
	var errs *multierror.Error
	for i, p := range points {
		if p.Foreigners < 0 || p.Immigrants < 0 || p.TotalPopulation <= 0 {
			errs = multierror.Append(errs, fmt.Errorf("point %d: negative or empty counts", i))
		}
		if p.Foreigners > p.TotalPopulation || p.Immigrants > p.TotalPopulation {
			errs = multierror.Append(errs, fmt.Errorf("point %d: counts exceed total population", i))
		}
	}
	return invalid("foreign population", errs)
}

func ValidateNationalities(rows []Nationality) error {
	var errs *multierror.Error
	for i, r := range rows {
		if strings.TrimSpace(r.Nationality) == "" {
			errs = multierror.Append(errs, fmt.Errorf("row %d: missing nationality", i))
		}
		if r.Population < 0 {
			errs = multierror.Append(errs, fmt.Errorf("row %d: negative population", i))
		}
	}
	return invalid("nationalities", errs)
}

func ValidateCostOfLife(rows []CostCategory) error {
	var errs *multierror.Error
	for i, r := range rows {
		if strings.TrimSpace(r.Category) == "" {
			errs = multierror.Append(errs, fmt.Errorf("row %d: missing category", i))
		}
		if !finite(r.Value) {
			errs = multierror.Append(errs, fmt.Errorf("row %d: value is not finite", i))
		}
	}
	return invalid("cost of life", errs)
}

// ValidateProjections requires population and jobs to cover the same years.
func ValidateProjections(p Projections) error {
	var errs *multierror.Error
	if len(p.Population) != len(p.Jobs) {
		errs = multierror.Append(errs, fmt.Errorf("population has %d years, jobs %d", len(p.Population), len(p.Jobs)))
	}
	for i := range p.Population {
		if p.Population[i].Year == "" {
			errs = multierror.Append(errs, fmt.Errorf("population %d: missing year", i))
		}
		if i < len(p.Jobs) && p.Jobs[i].Year != p.Population[i].Year {
			errs = multierror.Append(errs, fmt.Errorf("jobs %d: year %q does not match %q", i, p.Jobs[i].Year, p.Population[i].Year))
		}
	}
	return invalid("projections", errs)
}
