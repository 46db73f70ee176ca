// Package codec treats the wire protocol as an external collaborator:
// converting bytes to/from typed protocol messages. This module only
// consumes a Codec — message-type dispatch is a tagged variant ("one
// case per handled type") rather than duck-typed field probing, so
// Message is an interface implemented by one concrete, fixed-shape
// struct per wire message the engine understands, with a Kind tag for
// the engine's type switch.
//
// Simple is a minimal reference Codec good enough to drive this
// module's engine against in tests. A real deployment links in a full
// wire-format implementation (e.g. a MAVLink codec) that produces the
// exact same Message values.
package codec

// Kind tags the concrete Go type of a Message so engine dispatch can
// type-switch on a small closed set instead of probing fields.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindBadData
	KindHeartbeat
	KindStatustext
	KindParamValue
	KindServoOutputRaw
	KindWaypointCount
	KindWaypointItem
	KindWaypointRequest
	KindWaypointCurrent
	KindSysStatus
	KindVfrHud
	KindRcChannelsRaw
	KindNavControllerOutput
	KindApAdc
	KindGpsRaw
	KindSilent

	// Outbound-only kinds: the engine constructs these; no inbound
	// handler dispatches on them.
	KindGcsHeartbeat
	KindParamSet
	KindParamRequestList
	KindRequestDataStream
	KindWaypointClearAll
	KindWaypointSetCurrent
	KindWaypointCountOut
	KindWaypointRequestList
	KindRcOverride
	KindSetMode
)

// Message is implemented by every concrete wire-message type below.
// WireBytes returns the exact bytes the codec produced this message
// from (or will produce when encoding an outbound message) — what the
// engine fans out verbatim to Output Links and what the Journal
// persists.
type Message interface {
	Kind() Kind
	SystemID() uint8
	ComponentID() uint8
	WireBytes() []byte
}

// Timestamped exposes a message's `usec` timestamp. Every concrete
// message type implements it through the embedded base, so the engine
// runs every inbound message through the link-delay state machine.
// HasTimestamp/SetTimestamp model the "if the message carries no
// prior timestamp assigned by the codec, post it" rule: the engine
// stamps a message with the local receive time when the codec left it
// unset (Simple never sets one).
type Timestamped interface {
	Message
	Usec() uint64
	HasTimestamp() bool
	SetTimestamp(usec uint64)
}

// base is embedded by every concrete message type.
type base struct {
	kind      Kind
	sysID     uint8
	compID    uint8
	raw       []byte
	hasUsec   bool
	usec      uint64
	usecKnown bool
}

func (b *base) Kind() Kind          { return b.kind }
func (b *base) SystemID() uint8     { return b.sysID }
func (b *base) ComponentID() uint8  { return b.compID }
func (b *base) WireBytes() []byte   { return b.raw }
func (b *base) Usec() uint64        { return b.usec }
func (b *base) HasTimestamp() bool  { return b.usecKnown }
func (b *base) SetTimestamp(u uint64) {
	b.usec = u
	b.usecKnown = true
}

func newBase(kind Kind, sysID, compID uint8, raw []byte) base {
	return base{kind: kind, sysID: sysID, compID: compID, raw: raw}
}

// BadData is emitted by the codec when bytes can't be decoded at all.
// The engine does not write it to the parsed journal and does not fan
// it out to Output Links; like any message, it is dropped when its
// link is delayed and is counted in the Status Mirror.
type BadData struct {
	base
	Printable bool
}

func NewBadData(raw []byte, printable bool) *BadData {
	return &BadData{base: newBase(KindBadData, 0, 0, raw), Printable: printable}
}

// Heartbeat carries the source identity the engine adopts as the
// vehicle's (target_system, target_component).
type Heartbeat struct {
	base
	FlightMode string
}

func NewHeartbeat(sysID, compID uint8, mode string, raw []byte) *Heartbeat {
	m := &Heartbeat{base: newBase(KindHeartbeat, sysID, compID, raw), FlightMode: mode}
	m.usecKnown = false
	return m
}

type Statustext struct {
	base
	Text string
}

func NewStatustext(sysID, compID uint8, text string, raw []byte) *Statustext {
	return &Statustext{base: newBase(KindStatustext, sysID, compID, raw), Text: text}
}

type ParamValue struct {
	base
	ParamID    string
	Value      float32
	ParamIndex uint16
	ParamCount uint16
}

func NewParamValue(sysID, compID uint8, id string, val float32, idx, count uint16, raw []byte) *ParamValue {
	return &ParamValue{base: newBase(KindParamValue, sysID, compID, raw), ParamID: id, Value: val, ParamIndex: idx, ParamCount: count}
}

// ServoOutputRaw carries eight PWM channel readings.
type ServoOutputRaw struct {
	base
	Servo [8]uint16
}

func NewServoOutputRaw(sysID, compID uint8, servo [8]uint16, raw []byte) *ServoOutputRaw {
	return &ServoOutputRaw{base: newBase(KindServoOutputRaw, sysID, compID, raw), Servo: servo}
}

type WaypointCount struct {
	base
	Count uint16
}

func NewWaypointCount(sysID, compID uint8, count uint16, raw []byte) *WaypointCount {
	return &WaypointCount{base: newBase(KindWaypointCount, sysID, compID, raw), Count: count}
}

// WaypointItem is both the inbound download-path payload and the
// outbound upload-path reply.
type WaypointItem struct {
	base
	Seq          uint16
	Frame        uint8
	Command      uint16
	Current      uint8
	Autocontinue uint8
	Param        [4]float32
	Lat, Lon, Alt float32
}

func NewWaypointItem(sysID, compID uint8, wp WaypointItem, raw []byte) *WaypointItem {
	wp.base = newBase(KindWaypointItem, sysID, compID, raw)
	return &wp
}

type WaypointRequest struct {
	base
	Seq uint16
}

func NewWaypointRequest(sysID, compID uint8, seq uint16, raw []byte) *WaypointRequest {
	return &WaypointRequest{base: newBase(KindWaypointRequest, sysID, compID, raw), Seq: seq}
}

type WaypointCurrent struct {
	base
	Seq uint16
}

func NewWaypointCurrent(sysID, compID uint8, seq uint16, raw []byte) *WaypointCurrent {
	return &WaypointCurrent{base: newBase(KindWaypointCurrent, sysID, compID, raw), Seq: seq}
}

type SysStatus struct {
	base
	BatteryRemaining int8 // percent, -1 if unknown
	OnboardControlSensorsHealth uint32
}

func NewSysStatus(sysID, compID uint8, batteryRemaining int8, raw []byte) *SysStatus {
	return &SysStatus{base: newBase(KindSysStatus, sysID, compID, raw), BatteryRemaining: batteryRemaining}
}

type VfrHud struct {
	base
	Alt float32
}

func NewVfrHud(sysID, compID uint8, alt float32, raw []byte) *VfrHud {
	return &VfrHud{base: newBase(KindVfrHud, sysID, compID, raw), Alt: alt}
}

type RcChannelsRaw struct {
	base
	Chan [8]uint16
}

func NewRcChannelsRaw(sysID, compID uint8, ch [8]uint16, raw []byte) *RcChannelsRaw {
	return &RcChannelsRaw{base: newBase(KindRcChannelsRaw, sysID, compID, raw), Chan: ch}
}

type NavControllerOutput struct {
	base
	WpDist uint16
}

func NewNavControllerOutput(sysID, compID uint8, wpDist uint16, raw []byte) *NavControllerOutput {
	return &NavControllerOutput{base: newBase(KindNavControllerOutput, sysID, compID, raw), WpDist: wpDist}
}

// ApAdc is the legacy APM analog-telemetry message a ground-station
// bridge reads cell voltage from when per-cell telemetry, rather than
// a percentage, is all the autopilot reports.
type ApAdc struct {
	base
	Adc2 uint16
}

func NewApAdc(sysID, compID uint8, adc2 uint16, raw []byte) *ApAdc {
	return &ApAdc{base: newBase(KindApAdc, sysID, compID, raw), Adc2: adc2}
}

type GpsRaw struct {
	base
	FixType uint8
}

func NewGpsRaw(sysID, compID uint8, fixType uint8, raw []byte) *GpsRaw {
	return &GpsRaw{base: newBase(KindGpsRaw, sysID, compID, raw), FixType: fixType}
}

// Silent covers the enumerated telemetry types the engine mirrors and
// fans out with no other side effect. TypeName preserves the wire
// message name for the Status Mirror.
type Silent struct {
	base
	TypeName string
}

func NewSilent(sysID, compID uint8, typeName string, raw []byte) *Silent {
	return &Silent{base: newBase(KindSilent, sysID, compID, raw), TypeName: typeName}
}

// TypeName returns the logical message-type name used as the Status
// Mirror key; it is the single place that maps a Kind (or a Silent's
// dynamic name) to the string the handler table and CLI
// (`status [pattern]`) refer to messages by.
func TypeName(m Message) string {
	switch v := m.(type) {
	case *BadData:
		return "BAD_DATA"
	case *Heartbeat:
		return "HEARTBEAT"
	case *Statustext:
		return "STATUSTEXT"
	case *ParamValue:
		return "PARAM_VALUE"
	case *ServoOutputRaw:
		return "SERVO_OUTPUT_RAW"
	case *WaypointCount:
		return "WAYPOINT_COUNT"
	case *WaypointItem:
		return "WAYPOINT"
	case *WaypointRequest:
		return "WAYPOINT_REQUEST"
	case *WaypointCurrent:
		return "WAYPOINT_CURRENT"
	case *SysStatus:
		return "SYS_STATUS"
	case *VfrHud:
		return "VFR_HUD"
	case *RcChannelsRaw:
		return "RC_CHANNELS_RAW"
	case *NavControllerOutput:
		return "NAV_CONTROLLER_OUTPUT"
	case *ApAdc:
		return "AP_ADC"
	case *GpsRaw:
		return "GPS_RAW"
	case *Silent:
		return v.TypeName
	default:
		return "UNKNOWN"
	}
}

// --- outbound-only message constructors -----------------------------
//
// These are built by the engine/operator-command layer with no raw
// bytes yet; Codec.Encode fills WireBytes in at send time.

type GcsHeartbeat struct{ base }

func NewGcsHeartbeat(sysID, compID uint8) *GcsHeartbeat {
	return &GcsHeartbeat{base: newBase(KindGcsHeartbeat, sysID, compID, nil)}
}

type ParamSet struct {
	base
	TargetSystem, TargetComponent uint8
	ParamID                       string
	Value                         float32
}

func NewParamSet(sysID, compID, targetSys, targetComp uint8, id string, val float32) *ParamSet {
	return &ParamSet{base: newBase(KindParamSet, sysID, compID, nil), TargetSystem: targetSys, TargetComponent: targetComp, ParamID: id, Value: val}
}

type ParamRequestList struct {
	base
	TargetSystem, TargetComponent uint8
}

func NewParamRequestList(sysID, compID, targetSys, targetComp uint8) *ParamRequestList {
	return &ParamRequestList{base: newBase(KindParamRequestList, sysID, compID, nil), TargetSystem: targetSys, TargetComponent: targetComp}
}

type RequestDataStream struct {
	base
	TargetSystem, TargetComponent uint8
	Rate                          uint16
	Start                         bool
}

func NewRequestDataStream(sysID, compID, targetSys, targetComp uint8, rate uint16) *RequestDataStream {
	return &RequestDataStream{base: newBase(KindRequestDataStream, sysID, compID, nil), TargetSystem: targetSys, TargetComponent: targetComp, Rate: rate, Start: true}
}

type WaypointClearAll struct {
	base
	TargetSystem, TargetComponent uint8
}

func NewWaypointClearAll(sysID, compID, targetSys, targetComp uint8) *WaypointClearAll {
	return &WaypointClearAll{base: newBase(KindWaypointClearAll, sysID, compID, nil), TargetSystem: targetSys, TargetComponent: targetComp}
}

type WaypointSetCurrent struct {
	base
	TargetSystem, TargetComponent uint8
	Seq                           uint16
}

func NewWaypointSetCurrent(sysID, compID, targetSys, targetComp uint8, seq uint16) *WaypointSetCurrent {
	return &WaypointSetCurrent{base: newBase(KindWaypointSetCurrent, sysID, compID, nil), TargetSystem: targetSys, TargetComponent: targetComp, Seq: seq}
}

type RcOverride struct {
	base
	TargetSystem, TargetComponent uint8
	Chan                          [8]uint16
}

func NewRcOverride(sysID, compID, targetSys, targetComp uint8, ch [8]uint16) *RcOverride {
	return &RcOverride{base: newBase(KindRcOverride, sysID, compID, nil), TargetSystem: targetSys, TargetComponent: targetComp, Chan: ch}
}

type SetMode struct {
	base
	TargetSystem uint8
	Mode         uint8
}

func NewSetMode(sysID, compID, targetSys uint8, mode uint8) *SetMode {
	return &SetMode{base: newBase(KindSetMode, sysID, compID, nil), TargetSystem: targetSys, Mode: mode}
}

// WaypointRequestList is the outbound trigger for the download path
// (operator `wp list`/`wp save <file>`): the vehicle answers with a
// WAYPOINT_COUNT/MISSION_COUNT, which drives the rest of the download
// handler table.
type WaypointRequestList struct {
	base
	TargetSystem, TargetComponent uint8
}

func NewWaypointRequestList(sysID, compID, targetSys, targetComp uint8) *WaypointRequestList {
	return &WaypointRequestList{base: newBase(KindWaypointRequestList, sysID, compID, nil), TargetSystem: targetSys, TargetComponent: targetComp}
}

// WaypointCountOut is the outbound counterpart of WaypointCount, sent
// by the engine to announce an upload's item count.
type WaypointCountOut struct {
	base
	TargetSystem, TargetComponent uint8
	Count                         uint16
}

func NewWaypointCountOut(sysID, compID, targetSys, targetComp uint8, count uint16) *WaypointCountOut {
	return &WaypointCountOut{base: newBase(KindWaypointCountOut, sysID, compID, nil), TargetSystem: targetSys, TargetComponent: targetComp, Count: count}
}

// Codec converts bytes to/from Messages. Feed may be called with zero
// or more complete frames in data; it returns every message it could
// decode and never blocks. A decode failure surfaces as a BadData
// message rather than an error, since counts bad data as
// a message in its own right ("bad data messages into mav_error").
type Codec interface {
	Feed(data []byte) []Message
	Encode(msg Message) ([]byte, error)
}
