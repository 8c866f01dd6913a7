package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&RecorderInfo{},
	&FlightRun{},
	&TelemetrySample{},
	&PhaseEventRecord{},
	&FlightTrack{},
	&RecorderPerformance{},
}

// DatabaseModelsSQLite matches DatabaseModels. Tracks are stored as plain
// WKB, which SQLite keeps as a blob.
var DatabaseModelsSQLite = DatabaseModels

////////////////////////
// SYSTEM MODELS
////////////////////////

// RecorderInfo describes the installation that produced the recordings
type RecorderInfo struct {
	gorm.Model
	Name        string `json:"name" gorm:"size:127"`
	Description string `json:"description" gorm:"size:255"`
	Website     string `json:"website" gorm:"size:255"`
}

func (*RecorderInfo) TableName() string {
	return "recorder_infos"
}

// RecorderPerformance is the model for recorder performance metrics
type RecorderPerformance struct {
	Time                time.Time `json:"time" gorm:"index:idx_perf_time"`
	FlightRunID         uint      `json:"flightRunId" gorm:"index:idx_perf_flight_run_id"`
	Captures            uint64    `json:"captures"`
	PhaseEvents         uint64    `json:"phaseEvents"`
	TelemetryQueue      uint32    `json:"telemetryQueue"`
	PhaseEventQueue     uint32    `json:"phaseEventQueue"`
	Dropped             uint64    `json:"dropped"`
	LastWriteDurationMs float32   `json:"lastWriteDurationMs"`
}

func (*RecorderPerformance) TableName() string {
	return "recorder_performances"
}

////////////////////////
// RECORDING MODELS
////////////////////////

// FlightRun is one recorded flight from reset to touchdown or shutdown
type FlightRun struct {
	gorm.Model
	RunID           string         `json:"runId" gorm:"size:36;uniqueIndex:idx_flight_run_run_id"`
	Name            string         `json:"name" gorm:"size:200"`
	StartTime       time.Time      `json:"startTime" gorm:"index:idx_flight_run_start"`
	EndTime         sql.NullTime   `json:"endTime" gorm:"default:NULL"`
	CaptureInterval float32        `json:"captureInterval" gorm:"default:1.0"`
	VehicleName     string         `json:"vehicleName" gorm:"size:127"`
	Vehicle         datatypes.JSON `json:"vehicle" gorm:"default:'{}'"`
	Phases          datatypes.JSON `json:"phases" gorm:"default:'[]'"`
	Outcome         string         `json:"outcome" gorm:"size:32;default:in_progress"`
	RecorderVersion string         `json:"recorderVersion" gorm:"size:64"`

	TelemetrySamples []TelemetrySample
	PhaseEvents      []PhaseEventRecord
}

func (*FlightRun) TableName() string {
	return "flight_runs"
}

// TelemetrySample is one captured telemetry snapshot
type TelemetrySample struct {
	ID              uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time            time.Time `json:"time"`
	FlightRunID     uint      `json:"flightRunId" gorm:"index:idx_telemetry_flight_run_id"`
	FlightRun       FlightRun `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:FlightRunID;"`
	CaptureFrame    uint      `json:"captureFrame" gorm:"index:idx_telemetry_capture_frame"`
	SimTime         float64   `json:"simTime"`
	Altitude        float64   `json:"altitude"`
	Speed           float64   `json:"speed"`
	VerticalSpeed   float64   `json:"verticalSpeed"`
	Mass            float64   `json:"mass"`
	FuelPercent     float64   `json:"fuelPercent"`
	Thrust          float64   `json:"thrust"`
	ThrottlePercent float64   `json:"throttlePercent"`
	Pitch           float64   `json:"pitch"`
	Roll            float64   `json:"roll"`
	Yaw             float64   `json:"yaw"`
	GForce          float64   `json:"gForce"`
	Downrange       float64   `json:"downrange"`
	DynamicPressure float64   `json:"dynamicPressure"`
	Phase           string    `json:"phase" gorm:"size:64"`
	PhaseIndex      int       `json:"phaseIndex"`
	Running         bool      `json:"running"`
	PositionX       float64   `json:"positionX"`
	PositionY       float64   `json:"positionY"`
	PositionZ       float64   `json:"positionZ"`
}

func (*TelemetrySample) TableName() string {
	return "telemetry_samples"
}

// PhaseEventRecord is a persisted phase change
type PhaseEventRecord struct {
	ID          uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time        time.Time `json:"time"`
	FlightRunID uint      `json:"flightRunId" gorm:"index:idx_phase_event_flight_run_id"`
	FlightRun   FlightRun `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:FlightRunID;"`
	SimTime     float64   `json:"simTime"`
	FromIndex   int       `json:"fromIndex"`
	ToIndex     int       `json:"toIndex"`
	Phase       string    `json:"phase" gorm:"size:64"`
	Cause       string    `json:"cause" gorm:"size:16"`
}

func (*PhaseEventRecord) TableName() string {
	return "phase_events"
}

// FlightTrack is the flown path of a run as an EPSG:3857 line string with altitude in Z
type FlightTrack struct {
	ID          uint            `json:"id" gorm:"primarykey;autoIncrement;"`
	FlightRunID uint            `json:"flightRunId" gorm:"uniqueIndex:idx_track_flight_run_id"`
	FlightRun   FlightRun       `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:FlightRunID;"`
	Points      int             `json:"points"`
	Path        geom.LineString `json:"-"`
}

func (*FlightTrack) TableName() string {
	return "flight_tracks"
}
