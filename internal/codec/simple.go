package codec

import (
	"bytes"
	"encoding/binary"
)

// Simple is a minimal reference Codec: a length-prefixed binary frame
// per message, good enough to exercise the engine's dispatch and
// state machines end-to-end in tests without depending on a real wire
// format. A production deployment links a real protocol codec (e.g. a
// MAVLink implementation) satisfying the same Codec interface —
// treats the codec as an external collaborator.
//
// Frame layout: [1B kind][1B sysID][1B compID][4B BE payload length][payload].
type Simple struct {
	buf bytes.Buffer
}

func NewSimple() *Simple { return &Simple{} }

func (c *Simple) Feed(data []byte) []Message {
	c.buf.Write(data)

	var out []Message
	for {
		b := c.buf.Bytes()
		if len(b) < 7 {
			break
		}
		plen := binary.BigEndian.Uint32(b[3:7])
		if uint32(len(b)) < 7+plen {
			break
		}

		frame := make([]byte, 7+plen)
		copy(frame, b[:7+plen])
		c.buf.Next(int(7 + plen))

		kind := Kind(frame[0])
		sysID := frame[1]
		compID := frame[2]
		payload := frame[7:]

		msg, err := decode(kind, sysID, compID, payload, frame)
		if err != nil {
			out = append(out, NewBadData(frame, isPrintable(frame)))
			continue
		}
		out = append(out, msg)
	}
	return out
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 && c != '\t' && c != '\n' && c != '\r' {
			return false
		}
		if c > 0x7e {
			return false
		}
	}
	return true
}

func (c *Simple) Encode(msg Message) ([]byte, error) {
	payload, err := encodePayload(msg)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, 7+len(payload))
	frame[0] = byte(msg.Kind())
	frame[1] = msg.SystemID()
	frame[2] = msg.ComponentID()
	binary.BigEndian.PutUint32(frame[3:7], uint32(len(payload)))
	copy(frame[7:], payload)
	return frame, nil
}

func putString(buf *bytes.Buffer, s string) {
	if len(s) > 255 {
		s = s[:255]
	}
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
}

func getString(b []byte) (string, []byte) {
	if len(b) == 0 {
		return "", b
	}
	n := int(b[0])
	if n > len(b)-1 {
		n = len(b) - 1
	}
	return string(b[1 : 1+n]), b[1+n:]
}

func encodePayload(msg Message) ([]byte, error) {
	var buf bytes.Buffer
	switch m := msg.(type) {
	case *BadData:
		buf.Write(m.raw)
	case *Heartbeat:
		putString(&buf, m.FlightMode)
	case *Statustext:
		putString(&buf, m.Text)
	case *ParamValue:
		putString(&buf, m.ParamID)
		_ = binary.Write(&buf, binary.BigEndian, m.Value)
		_ = binary.Write(&buf, binary.BigEndian, m.ParamIndex)
		_ = binary.Write(&buf, binary.BigEndian, m.ParamCount)
	case *ServoOutputRaw:
		for _, v := range m.Servo {
			_ = binary.Write(&buf, binary.BigEndian, v)
		}
	case *WaypointCount:
		_ = binary.Write(&buf, binary.BigEndian, m.Count)
	case *WaypointCountOut:
		buf.WriteByte(m.TargetSystem)
		buf.WriteByte(m.TargetComponent)
		_ = binary.Write(&buf, binary.BigEndian, m.Count)
	case *WaypointItem:
		_ = binary.Write(&buf, binary.BigEndian, m.Seq)
		buf.WriteByte(m.Frame)
		_ = binary.Write(&buf, binary.BigEndian, m.Command)
		buf.WriteByte(m.Current)
		buf.WriteByte(m.Autocontinue)
		for _, p := range m.Param {
			_ = binary.Write(&buf, binary.BigEndian, p)
		}
		_ = binary.Write(&buf, binary.BigEndian, m.Lat)
		_ = binary.Write(&buf, binary.BigEndian, m.Lon)
		_ = binary.Write(&buf, binary.BigEndian, m.Alt)
	case *WaypointRequest:
		_ = binary.Write(&buf, binary.BigEndian, m.Seq)
	case *WaypointCurrent:
		_ = binary.Write(&buf, binary.BigEndian, m.Seq)
	case *WaypointClearAll:
		buf.WriteByte(m.TargetSystem)
		buf.WriteByte(m.TargetComponent)
	case *WaypointSetCurrent:
		buf.WriteByte(m.TargetSystem)
		buf.WriteByte(m.TargetComponent)
		_ = binary.Write(&buf, binary.BigEndian, m.Seq)
	case *SysStatus:
		_ = binary.Write(&buf, binary.BigEndian, m.BatteryRemaining)
	case *VfrHud:
		_ = binary.Write(&buf, binary.BigEndian, m.Alt)
	case *RcChannelsRaw:
		for _, v := range m.Chan {
			_ = binary.Write(&buf, binary.BigEndian, v)
		}
	case *RcOverride:
		buf.WriteByte(m.TargetSystem)
		buf.WriteByte(m.TargetComponent)
		for _, v := range m.Chan {
			_ = binary.Write(&buf, binary.BigEndian, v)
		}
	case *NavControllerOutput:
		_ = binary.Write(&buf, binary.BigEndian, m.WpDist)
	case *ApAdc:
		_ = binary.Write(&buf, binary.BigEndian, m.Adc2)
	case *GpsRaw:
		buf.WriteByte(m.FixType)
	case *Silent:
		putString(&buf, m.TypeName)
	case *GcsHeartbeat:
		// no payload
	case *ParamSet:
		buf.WriteByte(m.TargetSystem)
		buf.WriteByte(m.TargetComponent)
		putString(&buf, m.ParamID)
		_ = binary.Write(&buf, binary.BigEndian, m.Value)
	case *ParamRequestList:
		buf.WriteByte(m.TargetSystem)
		buf.WriteByte(m.TargetComponent)
	case *WaypointRequestList:
		buf.WriteByte(m.TargetSystem)
		buf.WriteByte(m.TargetComponent)
	case *RequestDataStream:
		buf.WriteByte(m.TargetSystem)
		buf.WriteByte(m.TargetComponent)
		_ = binary.Write(&buf, binary.BigEndian, m.Rate)
	case *SetMode:
		buf.WriteByte(m.TargetSystem)
		buf.WriteByte(m.Mode)
	}
	return buf.Bytes(), nil
}

func decode(kind Kind, sysID, compID uint8, p []byte, raw []byte) (Message, error) {
	switch kind {
	case KindBadData:
		return NewBadData(raw, isPrintable(p)), nil
	case KindHeartbeat:
		mode, _ := getString(p)
		return NewHeartbeat(sysID, compID, mode, raw), nil
	case KindStatustext:
		text, _ := getString(p)
		return NewStatustext(sysID, compID, text, raw), nil
	case KindParamValue:
		id, rest := getString(p)
		var val float32
		var idx, count uint16
		r := bytes.NewReader(rest)
		_ = binary.Read(r, binary.BigEndian, &val)
		_ = binary.Read(r, binary.BigEndian, &idx)
		_ = binary.Read(r, binary.BigEndian, &count)
		return NewParamValue(sysID, compID, id, val, idx, count, raw), nil
	case KindServoOutputRaw:
		var servo [8]uint16
		r := bytes.NewReader(p)
		for i := range servo {
			_ = binary.Read(r, binary.BigEndian, &servo[i])
		}
		return NewServoOutputRaw(sysID, compID, servo, raw), nil
	case KindWaypointCount:
		var count uint16
		_ = binary.Read(bytes.NewReader(p), binary.BigEndian, &count)
		return NewWaypointCount(sysID, compID, count, raw), nil
	case KindWaypointCountOut:
		var count uint16
		_ = binary.Read(bytes.NewReader(p[2:]), binary.BigEndian, &count)
		return NewWaypointCount(sysID, compID, count, raw), nil
	case KindWaypointItem:
		r := bytes.NewReader(p)
		var wp WaypointItem
		_ = binary.Read(r, binary.BigEndian, &wp.Seq)
		frameByte := make([]byte, 1)
		_, _ = r.Read(frameByte)
		wp.Frame = frameByte[0]
		_ = binary.Read(r, binary.BigEndian, &wp.Command)
		cur := make([]byte, 1)
		_, _ = r.Read(cur)
		wp.Current = cur[0]
		ac := make([]byte, 1)
		_, _ = r.Read(ac)
		wp.Autocontinue = ac[0]
		for i := range wp.Param {
			_ = binary.Read(r, binary.BigEndian, &wp.Param[i])
		}
		_ = binary.Read(r, binary.BigEndian, &wp.Lat)
		_ = binary.Read(r, binary.BigEndian, &wp.Lon)
		_ = binary.Read(r, binary.BigEndian, &wp.Alt)
		return NewWaypointItem(sysID, compID, wp, raw), nil
	case KindWaypointRequest:
		var seq uint16
		_ = binary.Read(bytes.NewReader(p), binary.BigEndian, &seq)
		return NewWaypointRequest(sysID, compID, seq, raw), nil
	case KindWaypointCurrent:
		var seq uint16
		_ = binary.Read(bytes.NewReader(p), binary.BigEndian, &seq)
		return NewWaypointCurrent(sysID, compID, seq, raw), nil
	case KindSysStatus:
		var bat int8
		_ = binary.Read(bytes.NewReader(p), binary.BigEndian, &bat)
		return NewSysStatus(sysID, compID, bat, raw), nil
	case KindVfrHud:
		var alt float32
		_ = binary.Read(bytes.NewReader(p), binary.BigEndian, &alt)
		return NewVfrHud(sysID, compID, alt, raw), nil
	case KindRcChannelsRaw:
		var ch [8]uint16
		r := bytes.NewReader(p)
		for i := range ch {
			_ = binary.Read(r, binary.BigEndian, &ch[i])
		}
		return NewRcChannelsRaw(sysID, compID, ch, raw), nil
	case KindNavControllerOutput:
		var d uint16
		_ = binary.Read(bytes.NewReader(p), binary.BigEndian, &d)
		return NewNavControllerOutput(sysID, compID, d, raw), nil
	case KindApAdc:
		var adc2 uint16
		_ = binary.Read(bytes.NewReader(p), binary.BigEndian, &adc2)
		return NewApAdc(sysID, compID, adc2, raw), nil
	case KindGpsRaw:
		if len(p) < 1 {
			return NewGpsRaw(sysID, compID, 0, raw), nil
		}
		return NewGpsRaw(sysID, compID, p[0], raw), nil
	case KindSilent:
		name, _ := getString(p)
		return NewSilent(sysID, compID, name, raw), nil
	default:
		return NewBadData(raw, isPrintable(raw)), nil
	}
}
