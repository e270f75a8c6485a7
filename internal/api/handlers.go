package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ReddishWater101/orbitalprop/internal/batch"
	"github.com/ReddishWater101/orbitalprop/internal/elements"
	"github.com/ReddishWater101/orbitalprop/internal/geometry"
	"github.com/ReddishWater101/orbitalprop/internal/metrics"
	"github.com/ReddishWater101/orbitalprop/internal/passes"
	"github.com/ReddishWater101/orbitalprop/internal/propagation"
	"github.com/ReddishWater101/orbitalprop/internal/store"
	"github.com/ReddishWater101/orbitalprop/internal/trajectory"
)

// maxPoints bounds how many samples one request may ask for, so a huge
// window with a tiny step cannot pin a CPU for minutes.
const maxPoints = 100000

// defaultStepMinutes applies when a pass-analysis request omits the step.
const defaultStepMinutes = 1.0

// envelope is the uniform response shape: status plus either data or message.
type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, envelope{Status: "error", Message: msg})
}

func writeData(w http.ResponseWriter, code int, data any, msg string) {
	writeJSON(w, code, envelope{Status: "success", Data: data, Message: msg})
}

// windowRequest is the shared time-window portion of request bodies.
type windowRequest struct {
	StartTime     time.Time `json:"start_time"`
	DurationHours float64   `json:"duration_hours"`
	StepMinutes   float64   `json:"step_minutes"`
}

func (r windowRequest) window(defaultStep float64) (trajectory.Window, error) {
	step := r.StepMinutes
	if step == 0 && defaultStep > 0 {
		step = defaultStep
	}
	w := trajectory.Window{
		Start: r.StartTime.UTC(),
		End:   r.StartTime.UTC().Add(time.Duration(r.DurationHours * float64(time.Hour))),
		Step:  time.Duration(step * float64(time.Minute)),
	}
	if r.StartTime.IsZero() {
		return w, &trajectory.InvalidWindowError{Reason: "start_time is required"}
	}
	if err := w.Validate(); err != nil {
		return w, err
	}
	if n := w.PointCount(); n > maxPoints {
		return w, &trajectory.InvalidWindowError{
			Reason: fmt.Sprintf("window yields %d samples, limit is %d", n, maxPoints),
		}
	}
	return w, nil
}

// trajectoryData is the wire form of a sampled trajectory: parallel arrays
// sharing one ordering and length.
type trajectoryData struct {
	Times          []string     `json:"times"`
	Latitudes      []float64    `json:"latitudes"`
	Longitudes     []float64    `json:"longitudes"`
	AltitudesKm    []float64    `json:"altitudes_km"`
	PositionsECIKm [][3]float64 `json:"positions_eci_km"`
	Truncated      bool         `json:"truncated"`
}

func toTrajectoryData(tr *trajectory.Trajectory) trajectoryData {
	n := len(tr.Points)
	d := trajectoryData{
		Times:          make([]string, n),
		Latitudes:      make([]float64, n),
		Longitudes:     make([]float64, n),
		AltitudesKm:    make([]float64, n),
		PositionsECIKm: make([][3]float64, n),
		Truncated:      tr.Truncated,
	}
	for i, pt := range tr.Points {
		d.Times[i] = pt.Time.UTC().Format(time.RFC3339)
		d.Latitudes[i] = pt.Geodetic.LatDeg
		d.Longitudes[i] = pt.Geodetic.LonDeg
		d.AltitudesKm[i] = pt.Geodetic.AltKm
		d.PositionsECIKm[i] = [3]float64{pt.ECI.X, pt.ECI.Y, pt.ECI.Z}
	}
	return d
}

// badRequest reports whether the error is a caller mistake rather than an
// internal failure.
func badRequest(err error) bool {
	var malformed *elements.MalformedLineError
	var checksum *elements.ChecksumError
	var outOfRange *elements.FieldRangeError
	var window *trajectory.InvalidWindowError
	var geom *geometry.InvalidGeometryError
	return errors.As(err, &malformed) || errors.As(err, &checksum) ||
		errors.As(err, &outOfRange) || errors.As(err, &window) ||
		errors.As(err, &geom)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

type propagateRequest struct {
	ElementsText string `json:"elements_text"`
	windowRequest
}

func (s *Server) handlePropagate(w http.ResponseWriter, r *http.Request) {
	var req propagateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	win, err := req.window(0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	set, err := elements.Parse(req.ElementsText)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	prop, err := propagation.New(set)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tr, err := trajectory.Sample(prop, set.Name, win)
	if err != nil {
		metrics.RecordPropagation("error", 0)
		status := http.StatusInternalServerError
		if badRequest(err) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	msg := ""
	if tr.Truncated {
		metrics.RecordPropagation("truncated", len(tr.Points))
		msg = fmt.Sprintf("trajectory truncated after %d of %d samples: %v",
			len(tr.Points), win.PointCount(), tr.TruncatedBy)
	} else {
		metrics.RecordPropagation("ok", len(tr.Points))
	}
	writeData(w, http.StatusOK, toTrajectoryData(tr), msg)
}

type aoiRequest struct {
	Name      string         `json:"name"`
	OuterRing [][2]float64   `json:"outer_ring"`
	Holes     [][][2]float64 `json:"holes"`
}

func toAOI(req aoiRequest) geometry.AOI {
	a := geometry.AOI{Name: req.Name, Outer: toRing(req.OuterRing)}
	for _, h := range req.Holes {
		a.Holes = append(a.Holes, toRing(h))
	}
	return a
}

func toRing(pairs [][2]float64) geometry.Ring {
	r := make(geometry.Ring, len(pairs))
	for i, p := range pairs {
		r[i] = geometry.Vertex{Lon: p[0], Lat: p[1]}
	}
	return r
}

type passesRequest struct {
	ElementsText string       `json:"elements_text"`
	AOIs         []aoiRequest `json:"aois"`
	windowRequest
}

type passData struct {
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	DurationSeconds float64 `json:"duration_seconds"`
	PeakAltitudeKm  float64 `json:"peak_altitude_km"`
}

type aoiPassesData struct {
	AOIName              string     `json:"aoi_name"`
	TotalPasses          int        `json:"total_passes"`
	TotalCoverageSeconds float64    `json:"total_coverage_seconds"`
	Passes               []passData `json:"passes"`
}

type passAnalysisData struct {
	Satellite string          `json:"satellite"`
	Truncated bool            `json:"truncated"`
	AOIPasses []aoiPassesData `json:"aoi_passes"`
}

func (s *Server) handlePasses(w http.ResponseWriter, r *http.Request) {
	var req passesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.AOIs) == 0 {
		writeError(w, http.StatusBadRequest, "at least one AOI is required")
		return
	}

	win, err := req.window(defaultStepMinutes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	set, err := elements.Parse(req.ElementsText)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	prop, err := propagation.New(set)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tr, err := trajectory.Sample(prop, set.Name, win)
	if err != nil {
		metrics.RecordPropagation("error", 0)
		status := http.StatusInternalServerError
		if badRequest(err) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	if tr.Truncated {
		metrics.RecordPropagation("truncated", len(tr.Points))
	} else {
		metrics.RecordPropagation("ok", len(tr.Points))
	}

	aois := make([]geometry.AOI, len(req.AOIs))
	for i, a := range req.AOIs {
		aois[i] = toAOI(a)
	}

	results, skipped := passes.Analyze(s.logger, tr, aois)

	data := passAnalysisData{
		Satellite: tr.Satellite,
		Truncated: tr.Truncated,
		AOIPasses: make([]aoiPassesData, 0, len(results)),
	}
	total := 0
	for _, res := range results {
		out := aoiPassesData{
			AOIName:              res.AOIName,
			TotalPasses:          res.TotalPasses,
			TotalCoverageSeconds: res.TotalCoverageSeconds,
			Passes:               make([]passData, 0, len(res.Passes)),
		}
		for _, p := range res.Passes {
			out.Passes = append(out.Passes, passData{
				StartTime:       p.Start.UTC().Format(time.RFC3339),
				EndTime:         p.End.UTC().Format(time.RFC3339),
				DurationSeconds: p.DurationSeconds,
				PeakAltitudeKm:  p.PeakAltitudeKm,
			})
		}
		total += res.TotalPasses
		data.AOIPasses = append(data.AOIPasses, out)
	}
	metrics.RecordPasses(total)

	msg := ""
	if len(skipped) > 0 {
		msg = "skipped AOIs with invalid geometry: " + strings.Join(skipped, ", ")
	}
	writeData(w, http.StatusOK, data, msg)
}

type batchRequest struct {
	ElementsTexts []string `json:"elements_texts"`
	windowRequest
}

type batchEntryData struct {
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Data    *trajectoryData `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.ElementsTexts) == 0 {
		writeError(w, http.StatusBadRequest, "elements_texts must not be empty")
		return
	}

	win, err := req.window(0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sats := make([]batch.Satellite, len(req.ElementsTexts))
	for i, text := range req.ElementsTexts {
		sats[i] = batch.Satellite{ID: strconv.Itoa(i), ElementsText: text}
	}
	metrics.RecordBatch(len(sats))

	results, err := s.orchestrator.Run(r.Context(), sats, win)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries := make([]batchEntryData, len(results))
	for i, res := range results {
		if res.Err != nil {
			entries[i] = batchEntryData{ID: res.ID, Status: "error", Message: res.Err.Error()}
			continue
		}
		d := toTrajectoryData(res.Trajectory)
		entries[i] = batchEntryData{ID: res.ID, Status: "success", Data: &d}
	}
	writeData(w, http.StatusOK, map[string]any{"results": entries}, "")
}

type satelliteData struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	ElementsText string `json:"elements_text,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func toSatelliteData(rec store.Record, withElements bool) satelliteData {
	d := satelliteData{
		ID:        rec.ID,
		Name:      rec.Name,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
	}
	if withElements {
		d.ElementsText = rec.ElementsText
	}
	return d
}

func (s *Server) handleSatelliteList(w http.ResponseWriter, r *http.Request) {
	recs := s.store.List()
	out := make([]satelliteData, len(recs))
	for i, rec := range recs {
		out[i] = toSatelliteData(rec, false)
	}
	writeData(w, http.StatusOK, map[string]any{"satellites": out}, "")
}

type satelliteCreateRequest struct {
	Name         string `json:"name"`
	ElementsText string `json:"elements_text"`
}

func (s *Server) handleSatelliteCreate(w http.ResponseWriter, r *http.Request) {
	var req satelliteCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := s.store.Create(req.Name, req.ElementsText)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeData(w, http.StatusCreated, toSatelliteData(rec, false), "")
}

func (s *Server) handleSatelliteGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "satellite id must be an integer")
		return
	}
	rec, err := s.store.Get(id)
	if err != nil {
		var notFound *store.NotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, http.StatusOK, toSatelliteData(rec, true), "")
}
