package uci

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandBuilders(t *testing.T) {
	testCases := []struct {
		name   string
		packet *Packet
		expect []byte
	}{
		{"device reset", DeviceReset(), []byte{0x20, 0x00, 0x00, 0x01, 0x00}},
		{"caps", GetCapsInfo(), []byte{0x20, 0x03, 0x00, 0x00}},
		{"session deinit", SessionDeinit(0x01020304), []byte{0x21, 0x01, 0x00, 0x04, 0x04, 0x03, 0x02, 0x01}},
		{"range start", RangeStart(7), []byte{0x22, 0x00, 0x00, 0x04, 0x07, 0x00, 0x00, 0x00}},
		{"range stop", RangeStop(7), []byte{0x22, 0x01, 0x00, 0x04, 0x07, 0x00, 0x00, 0x00}},
		{"get count", SessionGetCount(), []byte{0x21, 0x05, 0x00, 0x00}},
		{"test stop", TestStopSession(), []byte{0x2d, 0x07, 0x00, 0x00}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, mustBytes(t, tc.packet))
		})
	}

	pkt, err := GetAppConfig(7, []byte{AppConfigChannelNumber, AppConfigSlotDuration})
	require.NoError(t, err)
	require.Equal(t, []byte{7, 0, 0, 0, 2, 0x04, 0x08}, pkt.Payload)

	pkt, err = SetAppConfig(7, []TLV{Uint8TLV(AppConfigChannelNumber, 9)})
	require.NoError(t, err)
	require.Equal(t, []byte{7, 0, 0, 0, 1, 0x04, 1, 9}, pkt.Payload)

	pkt, err = DataSend(7, 0x0102, 3, []byte{0xaa})
	require.NoError(t, err)
	require.Equal(t, []byte{7, 0, 0, 0, 0x02, 0x01, 0, 0, 0, 0, 0, 0, 3, 0, 1, 0, 0xaa}, pkt.Payload)
}

func TestUpdateMulticastListBounds(t *testing.T) {
	controlees := make([]Controlee, MaxControlees)
	for n := range controlees {
		controlees[n] = Controlee{ShortAddress: uint16(n + 1), SubSessionID: uint32(n)}
	}
	pkt, err := UpdateMulticastList(9, MulticastAdd, controlees)
	require.NoError(t, err)
	require.Len(t, pkt.Payload, 6+MaxControlees*6)
	require.Equal(t, []byte{9, 0, 0, 0, 0, MaxControlees, 1, 0, 0, 0, 0, 0}, pkt.Payload[:12])

	_, err = UpdateMulticastList(9, MulticastAdd, append(controlees, Controlee{}))
	require.ErrorIs(t, err, ErrInvalidParam)
	_, err = UpdateMulticastList(9, MulticastDelete, nil)
	require.ErrorIs(t, err, ErrInvalidParam)
}

func TestParseNotifications(t *testing.T) {
	st, err := ParseSessionStatus(NewNotification(GroupSession, OpcodeSessionStatus, []byte{7, 0, 0, 0, 0x03, 0x01}))
	require.NoError(t, err)
	require.Equal(t, SessionStatusNtf{SessionID: 7, State: SessionStateIdle, Reason: ReasonMaxRangingRoundRetryReached}, st)
	_, err = ParseSessionStatus(NewNotification(GroupSession, OpcodeSessionStatus, []byte{7, 0, 0, 0, 0x03}))
	require.ErrorIs(t, err, ErrMalformedPayload)

	ds, err := ParseDeviceStatus(NewNotification(GroupCore, OpcodeCoreDeviceStatus, []byte{0xff}))
	require.NoError(t, err)
	require.Equal(t, DeviceStatusError, ds)

	ml, err := ParseMulticastListNtf(NewNotification(GroupSession, OpcodeSessionUpdateMulticastList,
		[]byte{9, 0, 0, 0, 6, 1, 0x02, 0x00, 5, 0, 0, 0, 0x00}))
	require.NoError(t, err)
	require.Equal(t, MulticastListNtf{
		SessionID:  9,
		Remaining:  6,
		Controlees: []ControleeStatus{{ShortAddress: 2, SubSessionID: 5, Status: StatusOK}},
	}, ml)
	// count claims more entries than received
	_, err = ParseMulticastListNtf(NewNotification(GroupSession, OpcodeSessionUpdateMulticastList,
		[]byte{9, 0, 0, 0, 6, 200, 0x02, 0x00, 5, 0, 0, 0, 0x00}))
	require.ErrorIs(t, err, ErrMalformedPayload)

	rd, err := ParseRangeDataHeader(NewNotification(GroupRange, OpcodeRangeData, []byte{1, 0, 0, 0, 7, 0, 0, 0, 0xaa}))
	require.NoError(t, err)
	require.Equal(t, RangeDataHeader{Sequence: 1, SessionID: 7}, rd)

	dc, err := ParseDataCredit(NewNotification(GroupData, OpcodeDataCredit, []byte{7, 0, 0, 0, 1}))
	require.NoError(t, err)
	require.Equal(t, DataCreditNtf{SessionID: 7, Available: true}, dc)

	dt, err := ParseDataTransferStatus(NewNotification(GroupData, OpcodeDataTransferStatus, []byte{7, 0, 0, 0, 3, 0, 0}))
	require.NoError(t, err)
	require.Equal(t, DataTransferStatusNtf{SessionID: 7, Sequence: 3, Status: StatusOK}, dt)

	dr, err := ParseDataReceive(NewNotification(GroupData, OpcodeDataReceive,
		[]byte{7, 0, 0, 0, 0, 2, 1, 0, 0, 0, 0, 0, 0, 3, 0, 2, 0, 0xaa, 0xbb}))
	require.NoError(t, err)
	require.Equal(t, DataReceiveNtf{SessionID: 7, Source: 0x0102, Sequence: 3, Data: []byte{0xaa, 0xbb}}, dr)
	_, err = ParseDataReceive(NewNotification(GroupData, OpcodeDataReceive,
		[]byte{7, 0, 0, 0, 0, 2, 1, 0, 0, 0, 0, 0, 0, 3, 0, 9, 0, 0xaa}))
	require.ErrorIs(t, err, ErrMalformedPayload)
}

func TestParseResponses(t *testing.T) {
	info, err := ParseDeviceInfo(NewResponse(GroupCore, OpcodeCoreDeviceInfo,
		[]byte{0, 0x00, 0x02, 0x00, 0x01, 0x30, 0x01, 0x00, 0x02, 2, 0xab, 0xcd}))
	require.NoError(t, err)
	require.Equal(t, DeviceInfo{
		UCIVersion:     0x0200,
		MACVersion:     0x0100,
		PHYVersion:     0x0130,
		UCITestVersion: 0x0200,
		VendorInfo:     []byte{0xab, 0xcd},
	}, info)

	st, failed, err := ParseSetConfigResponse(NewResponse(GroupSession, OpcodeSessionSetAppConfig,
		[]byte{byte(StatusInvalidParam), 1, AppConfigSlotDuration, byte(StatusInvalidRange)}))
	require.NoError(t, err)
	require.Equal(t, StatusInvalidParam, st)
	require.Equal(t, []ConfigStatus{{Tag: AppConfigSlotDuration, Status: StatusInvalidRange}}, failed)

	st, failed, err = ParseSetConfigResponse(NewResponse(GroupSession, OpcodeSessionSetAppConfig, []byte{0}))
	require.NoError(t, err)
	require.Equal(t, StatusOK, st)
	require.Empty(t, failed)

	st, tlvs, err := ParseConfigResponse(NewResponse(GroupSession, OpcodeSessionGetAppConfig,
		[]byte{0, 1, AppConfigChannelNumber, 1, 9}))
	require.NoError(t, err)
	require.Equal(t, StatusOK, st)
	require.Equal(t, []TLV{Uint8TLV(AppConfigChannelNumber, 9)}, tlvs)
}
