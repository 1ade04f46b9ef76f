package dashboard

import (
	"context"
	"errors"
	"sort"

	"github.com/adeilh/go-insee/csvx"
	"github.com/adeilh/go-insee/insee"
	"github.com/adeilh/go-insee/timeseries"
)

var ErrUnknownDataset = errors.New("dashboard: unknown dataset")

type exporter func(ctx context.Context, s *Service) ([]csvx.Record, error)

var exporters = map[string]exporter{
	"inflation": func(ctx context.Context, s *Service) ([]csvx.Record, error) {
		series, err := s.InflationYoY(ctx)
		return seriesRecords(series), err
	},
	"felt-inflation": func(ctx context.Context, s *Service) ([]csvx.Record, error) {
		points, err := s.FeltInflation(ctx)
		records := make([]csvx.Record, len(points))
		for i, p := range points {
			records[i] = csvx.Record{
				{Key: "date", Value: csvx.Text(p.Date)},
				{Key: "official", Value: csvx.Number(p.Official)},
				{Key: "felt", Value: csvx.Number(p.Felt)},
			}
		}
		return records, err
	},
	"population": func(ctx context.Context, s *Service) ([]csvx.Record, error) {
		series, err := s.Population(ctx, insee.NantesCode)
		return seriesRecords(series), err
	},
	"age-groups": func(ctx context.Context, s *Service) ([]csvx.Record, error) {
		groups, err := s.AgeGroups(ctx, insee.NantesCode)
		records := make([]csvx.Record, len(groups))
		for i, g := range groups {
			records[i] = csvx.Record{
				{Key: "date", Value: csvx.Text(g.Date)},
				{Key: "g0_14", Value: csvx.Number(g.G0To14)},
				{Key: "g15_29", Value: csvx.Number(g.G15To29)},
				{Key: "g30_44", Value: csvx.Number(g.G30To44)},
				{Key: "g45_59", Value: csvx.Number(g.G45To59)},
				{Key: "g60plus", Value: csvx.Number(g.G60Plus)},
			}
		}
		return records, err
	},
	"france-population": func(ctx context.Context, s *Service) ([]csvx.Record, error) {
		points, err := s.FrancePopulation(ctx)
		records := make([]csvx.Record, len(points))
		for i, p := range points {
			records[i] = csvx.Record{
				{Key: "year", Value: csvx.Number(float64(p.Year))},
				{Key: "date", Value: csvx.Text(p.Date)},
				{Key: "population", Value: csvx.Number(p.Population)},
			}
		}
		return records, err
	},
	"france-age-groups": func(ctx context.Context, s *Service) ([]csvx.Record, error) {
		rows, err := s.FranceAgeGroups(ctx)
		records := make([]csvx.Record, len(rows))
		for i, r := range rows {
			records[i] = csvx.Record{
				{Key: "year", Value: csvx.Number(float64(r.Year))},
				{Key: "date", Value: csvx.Text(r.Date)},
				{Key: "0-19", Value: csvx.Number(r.Age0To19)},
				{Key: "20-39", Value: csvx.Number(r.Age20To39)},
				{Key: "40-59", Value: csvx.Number(r.Age40To59)},
				{Key: "60-74", Value: csvx.Number(r.Age60To74)},
				{Key: "75+", Value: csvx.Number(r.Age75Plus)},
			}
		}
		return records, err
	},
	"foreign-population": func(ctx context.Context, s *Service) ([]csvx.Record, error) {
		points, err := s.ForeignPopulation(ctx)
		records := make([]csvx.Record, len(points))
		for i, p := range points {
			records[i] = csvx.Record{
				{Key: "year", Value: csvx.Number(float64(p.Year))},
				{Key: "totalPopulation", Value: csvx.Number(float64(p.TotalPopulation))},
				{Key: "foreigners", Value: csvx.Number(float64(p.Foreigners))},
				{Key: "foreignersPercent", Value: csvx.Number(p.ForeignersPercent)},
				{Key: "immigrants", Value: csvx.Number(float64(p.Immigrants))},
				{Key: "immigrantsPercent", Value: csvx.Number(p.ImmigrantsPercent)},
			}
		}
		return records, err
	},
	"nationalities": func(ctx context.Context, s *Service) ([]csvx.Record, error) {
		rows, err := s.TopNationalities(ctx)
		records := make([]csvx.Record, len(rows))
		for i, r := range rows {
			records[i] = csvx.Record{
				{Key: "nationality", Value: csvx.Text(r.Nationality)},
				{Key: "population", Value: csvx.Number(float64(r.Population))},
				{Key: "percentOfForeigners", Value: csvx.Number(r.PercentOfForeigners)},
				{Key: "percentOfTotal", Value: csvx.Number(r.PercentOfTotal)},
			}
		}
		return records, err
	},
	"projections": func(ctx context.Context, s *Service) ([]csvx.Record, error) {
		p, err := s.Projections(ctx)
		records := make([]csvx.Record, 0, len(p.Population))
		for i, pop := range p.Population {
			rec := csvx.Record{
				{Key: "year", Value: csvx.Text(pop.Year)},
				{Key: "population", Value: csvx.Number(pop.Value)},
			}
			if i < len(p.Jobs) {
				rec = append(rec, csvx.Field{Key: "jobs", Value: csvx.Number(p.Jobs[i].Value)})
			}
			records = append(records, rec)
		}
		return records, err
	},
	"cost-of-life": func(ctx context.Context, s *Service) ([]csvx.Record, error) {
		rows, err := s.CostOfLife(ctx)
		records := make([]csvx.Record, len(rows))
		for i, r := range rows {
			records[i] = csvx.Record{
				{Key: "category", Value: csvx.Text(r.Category)},
				{Key: "value", Value: csvx.Number(r.Value)},
			}
		}
		return records, err
	},
}

// Datasets lists the names accepted by Export, sorted.
func Datasets() []string {
	names := make([]string, 0, len(exporters))
	for name := range exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Export flattens a dataset into records ready for csvx.WriteRecords.
func (s *Service) Export(ctx context.Context, dataset string) ([]csvx.Record, error) {
	fn, ok := exporters[dataset]
	if !ok {
		return nil, ErrUnknownDataset
	}
	records, err := fn(ctx, s)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func seriesRecords(series timeseries.Series) []csvx.Record {
	records := make([]csvx.Record, len(series))
	for i, p := range series {
		records[i] = csvx.Record{
			{Key: "date", Value: csvx.Text(p.Date)},
			{Key: "value", Value: csvx.Number(p.Value)},
		}
	}
	return records
}
