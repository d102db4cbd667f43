package config

import (
	"time"

	"faftonnage/pkg/contracts"
)

// Application constants
const (
	AppName    = "faftonnage"
	AppVersion = contracts.Version

	// EnvPrefix namespaces every environment variable, e.g. FAF_PIPELINE_YEAR.
	EnvPrefix = "FAF"

	// Default locations, relative to the base directory
	DefaultDataDir          = "data"
	DefaultLogsDir          = "logs"
	DefaultMetadataFile     = "data/FAF5_regional_flows_origin_destination/FAF5_metadata.xlsx"
	DefaultFlowsFile        = "data/FAF5_regional_flows_origin_destination/FAF5.4.1_2018-2020.csv"
	DefaultRegionsShapefile = "data/FAF5_regions/Freight_Analysis_Framework_(FAF5)_Regions.shp"
	DefaultTotalsCSV        = "data/total_tons_short.csv"
	DefaultOutputShapefile  = "data/FAF5_regions_with_tonnage/FAF5_regions_with_tonnage.shp"
	DefaultOutputGeoJSON    = "data/FAF5_regions_with_tonnage/FAF5_regions_with_tonnage.geojson"
	DefaultLogFile          = "logs/faftonnage.log"
	DefaultMetricsFile      = "logs/faftonnage.prom"

	// DefaultYear selects the tons_<year> column of the flow table.
	DefaultYear = 2020

	// Nominatim usage policy allows at most one request per second.
	DefaultGeocodeURL       = "https://nominatim.openstreetmap.org"
	DefaultGeocodeUserAgent = "MyGeocoder"
	DefaultGeocodeRPS       = 1.0
	DefaultGeocodeTimeout   = 10 * time.Second
)
