package archive

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDIP = `[IPTable]
id1=03
addr1=192.168.1.10
device1=04
port1=41794
room1=Lobby
id2=05
addr2=192.168.1.11
id3=06
`

func TestParseDIPGroupsByIndexAndOrders(t *testing.T) {
	entries, err := ParseDIP(strings.NewReader(testDIP))
	require.NoError(t, err)
	require.Len(t, entries, 2, "entry 3 is missing an address and must be dropped")

	assert.Equal(t, uint8(0x03), entries[0].IPID)
	assert.Equal(t, "192.168.1.10", entries[0].Address)
	require.NotNil(t, entries[0].DeviceID)
	assert.Equal(t, uint8(0x04), *entries[0].DeviceID)
	require.NotNil(t, entries[0].Port)
	assert.Equal(t, 41794, *entries[0].Port)
	assert.Equal(t, "Lobby", entries[0].RoomID)

	assert.Equal(t, uint8(0x05), entries[1].IPID)
	assert.Equal(t, "192.168.1.11", entries[1].Address)
	assert.Nil(t, entries[1].DeviceID)
}

func TestParseDIPDropsEntryMissingID(t *testing.T) {
	entries, err := ParseDIP(strings.NewReader("[IPTable]\naddr1=192.168.1.5\n"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseDIPDropsEntryWithOutOfRangeID(t *testing.T) {
	const dip = `[IPTable]
id1=00
addr1=192.168.1.10
id2=FF
addr2=192.168.1.11
`
	entries, err := ParseDIP(strings.NewReader(dip))
	require.NoError(t, err)
	assert.Empty(t, entries, "ids 0x00 and 0xFF both fall outside [0x03,0xFE]")
}

func TestParseDIPDropsOutOfRangeDeviceAndPortButKeepsEntry(t *testing.T) {
	const dip = `[IPTable]
id1=03
addr1=192.168.1.10
device1=FF
port1=80
`
	entries, err := ParseDIP(strings.NewReader(dip))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].DeviceID, "device id 0xFF is out of [0x03,0xFE]")
	assert.Nil(t, entries[0].Port, "port 80 is below the 257 minimum")
}
