package can

import (
	"encoding/binary"
	"fmt"
)

// Door command constants.
const (
	// CommandID is the standard 11-bit identifier for door commands.
	CommandID uint32 = 0x200

	// CmdLock and CmdUnlock are the single data byte of a command frame.
	CmdLock   byte = 0x30
	CmdUnlock byte = 0x31
)

// Classic CAN frame layout (struct can_frame).
const (
	// FrameSize is the wire size of a classic frame:
	//	Byte 0-3:  can_id (host byte order)
	//	Byte 4:    len (DLC)
	//	Byte 5-7:  padding / reserved
	//	Byte 8-15: data
	FrameSize = 16

	// MaxDataLen is the classic CAN payload limit.
	MaxDataLen = 8

	// maxStandardID is the largest 11-bit identifier.
	maxStandardID = 0x7FF

	dlcOffset  = 4
	dataOffset = 8
)

// Frame is a classic CAN data frame with a standard identifier.
type Frame struct {
	ID   uint32
	Data []byte
}

// MarshalBinary encodes the frame as a SocketCAN can_frame.
func (f Frame) MarshalBinary() ([]byte, error) {
	if f.ID > maxStandardID {
		return nil, fmt.Errorf("%w: id 0x%X exceeds 11 bits", ErrInvalidFrame, f.ID)
	}
	if len(f.Data) > MaxDataLen {
		return nil, fmt.Errorf("%w: %d data bytes", ErrInvalidFrame, len(f.Data))
	}

	buf := make([]byte, FrameSize)
	binary.NativeEndian.PutUint32(buf[0:dlcOffset], f.ID)
	buf[dlcOffset] = byte(len(f.Data))
	copy(buf[dataOffset:], f.Data)
	return buf, nil
}

// UnmarshalBinary decodes a SocketCAN can_frame.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) != FrameSize {
		return fmt.Errorf("%w: %d bytes, want %d", ErrInvalidFrame, len(data), FrameSize)
	}
	dlc := int(data[dlcOffset])
	if dlc > MaxDataLen {
		return fmt.Errorf("%w: dlc %d", ErrInvalidFrame, dlc)
	}

	f.ID = binary.NativeEndian.Uint32(data[0:dlcOffset]) & maxStandardID
	f.Data = append([]byte(nil), data[dataOffset:dataOffset+dlc]...)
	return nil
}

// String formats the frame like candump: "200#30".
func (f Frame) String() string {
	return fmt.Sprintf("%03X#%X", f.ID, f.Data)
}
