package track

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luftraum/internal/sbs"
)

func decode(t *testing.T, line string) sbs.Message {
	t.Helper()
	m, err := sbs.Decode(line)
	require.NoError(t, err)
	return m
}

func line(tx int, addr string, rest string) string {
	return fmt.Sprintf("MSG,%d,1,1,%s,1,2024/01/01,12:00:00.000,2024/01/01,12:00:00.000,%s", tx, addr, rest)
}

func TestUpdatePositionScenario(t *testing.T) {
	s := NewStore()
	created := s.Update(decode(t, "MSG,3,1,1,4CA1C2,1,2024/01/01,12:00:00.000,2024/01/01,12:00:00.000,,35000,,,53.5500,9.9900,,,,,,0"))
	require.True(t, created)

	pos, ok := s.LatestPosition("4CA1C2")
	require.True(t, ok)
	assert.Equal(t, Position{LatDeg: 53.55, LonDeg: 9.99, AltFt: 35000}, pos)
	assert.ElementsMatch(t, []string{"4CA1C2"}, s.IDs())
}

func TestCallSignScenario(t *testing.T) {
	s := NewStore()
	s.Update(decode(t, "MSG,3,1,1,4CA1C2,1,2024/01/01,12:00:00.000,2024/01/01,12:00:00.000,,35000,,,53.5500,9.9900,,,,,,0"))
	assert.Equal(t, UnknownCallSign, s.CallSign("4CA1C2"))

	s.Update(decode(t, "MSG,5,1,1,4CA1C2,1,2024/01/01,12:00:01.000,2024/01/01,12:00:01.000,BAW123,,,,,,,,,,,0"))
	assert.Equal(t, "BAW123", s.CallSign("4CA1C2"))
}

func TestCallSignIsNeverBlanked(t *testing.T) {
	s := NewStore()
	s.Update(decode(t, line(5, "ABC123", "DLH4AB,,,,,,,,,,,0")))
	s.Update(decode(t, line(5, "ABC123", ",,,,,,,,,,,0")))
	s.Update(decode(t, line(5, "ABC123", "   ,,,,,,,,,,,0")))
	s.Update(decode(t, line(3, "ABC123", ",1000,,,1.0,2.0,,,,,,0")))
	assert.Equal(t, "DLH4AB", s.CallSign("ABC123"))
}

func TestCallSignSeededOnCreate(t *testing.T) {
	s := NewStore()
	s.Update(decode(t, line(1, "ABC123", "EZY12,,,,,,,,,,,0")))
	assert.Equal(t, "EZY12", s.CallSign("ABC123"))
}

func TestLatestPositionIsAllOrNothing(t *testing.T) {
	s := NewStore()
	s.Update(decode(t, line(3, "ABC123", ",5000,,,50.1,8.6,,,,,,0")))
	// Newer position report without altitude.
	s.Update(decode(t, line(3, "ABC123", ",,,,50.2,8.7,,,,,,0")))

	_, ok := s.LatestPosition("ABC123")
	assert.False(t, ok)

	lat, ok := Latest(s, "ABC123", Latitude)
	require.True(t, ok)
	assert.Equal(t, 50.2, lat)

	_, ok = Latest(s, "ABC123", Altitude)
	assert.False(t, ok)
}

func TestAppendPolicyByTransmissionType(t *testing.T) {
	s := NewStore()
	s.Update(decode(t, line(3, "ABC123", ",5000,,,50.1,8.6,,,,,,0")))
	s.Update(decode(t, line(4, "ABC123", ",,420.0,90.0,,,64,,,,,0")))
	s.Update(decode(t, line(4, "ABC123", ",,421.0,91.0,,,0,,,,,0")))
	s.Update(decode(t, line(6, "ABC123", ",,,,,,,7700,0,1,0,0")))
	s.Update(decode(t, line(6, "ABC123", ",,,,,,,,0,0,0,0")))
	s.Update(decode(t, line(8, "ABC123", ",,,,,,,,,,,0")))

	tr, ok := s.Get("ABC123")
	require.True(t, ok)

	assert.Len(t, tr.MessageType, 6)
	assert.Len(t, tr.TransmissionType, 6)
	assert.Len(t, tr.Generated, 6)
	assert.Len(t, tr.Logged, 6)
	// Seed plus nothing further for position.
	assert.Len(t, tr.Altitude, 1)
	assert.Len(t, tr.Latitude, 1)
	assert.Len(t, tr.OnGround, 1)
	// Seed plus two velocity reports.
	assert.Len(t, tr.GroundSpeed, 3)
	assert.Len(t, tr.VerticalRate, 3)
	// Seed plus the one type 6 message carrying a squawk.
	assert.Len(t, tr.Squawk, 2)
	// Seed plus both type 6 messages.
	assert.Len(t, tr.Emergency, 3)

	gs, ok := Latest(s, "ABC123", GroundSpeed)
	require.True(t, ok)
	assert.Equal(t, 421.0, gs)

	sq, ok := Latest(s, "ABC123", Squawk)
	require.True(t, ok)
	assert.Equal(t, "7700", sq)

	emergency, ok := Latest(s, "ABC123", Emergency)
	require.True(t, ok)
	assert.False(t, emergency)

	tx, ok := Latest(s, "ABC123", TransmissionType)
	require.True(t, ok)
	assert.Equal(t, 8, tx)
}

func TestWrongFieldCountNeverReachesStore(t *testing.T) {
	s := NewStore()
	for _, l := range []string{
		"MSG,3,1,1,4CA1C2,1,2024/01/01,12:00:00.000,2024/01/01,12:00:00.000,,35000,,,53.5500,9.9900,,,,,",
		"MSG,3,1,1,4CA1C2,1,2024/01/01,12:00:00.000,2024/01/01,12:00:00.000,,35000,,,53.5500,9.9900,,,,,,0,0",
	} {
		if m, err := sbs.Decode(l); err == nil {
			s.Update(m)
		}
	}
	assert.Equal(t, 0, s.Len())
}

func TestAgeAndEvict(t *testing.T) {
	s := NewStore()
	s.Update(decode(t, line(3, "AAAAAA", ",5000,,,50.1,8.6,,,,,,0")))
	s.Update(decode(t, line(3, "BBBBBB", ",5000,,,50.1,8.6,,,,,,0")))

	for i := 0; i < 6; i++ {
		s.AgeAll(10 * time.Second)
		if i == 3 {
			s.Update(decode(t, line(4, "BBBBBB", ",,100,0,,,,,,,,0")))
		}
	}
	evicted := s.Evict(60 * time.Second)
	assert.Equal(t, []string{"AAAAAA"}, evicted)
	assert.ElementsMatch(t, []string{"BBBBBB"}, s.IDs())

	tr, ok := s.Get("BBBBBB")
	require.True(t, ok)
	assert.Equal(t, 20*time.Second, tr.LastSeen)
}

func TestAgeAndEvictUpdateWithoutFieldsResetsLastSeen(t *testing.T) {
	s := NewStore()
	s.Update(decode(t, line(3, "AAAAAA", ",5000,,,50.1,8.6,,,,,,0")))
	s.Update(decode(t, line(3, "BBBBBB", ",5000,,,50.1,8.6,,,,,,0")))

	for i := 0; i < 5; i++ {
		s.AgeAll(10 * time.Second)
	}
	// An all-call reply carries nothing beyond the always-recorded fields.
	s.Update(decode(t, line(8, "BBBBBB", ",,,,,,,,,,,0")))

	before, ok := s.Get("BBBBBB")
	require.True(t, ok)
	assert.Equal(t, time.Duration(0), before.LastSeen)

	assert.Equal(t, []string{"AAAAAA"}, s.AgeAndEvict(10*time.Second, 60*time.Second))
	assert.Equal(t, []string{"BBBBBB"}, s.IDs())

	tr, ok := s.Get("BBBBBB")
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, tr.LastSeen)
	assert.Len(t, tr.TransmissionType, 2)
	assert.Len(t, tr.Altitude, 1)
}

func TestEvictBelowThresholdKeepsTrack(t *testing.T) {
	s := NewStore()
	s.Update(decode(t, line(3, "AAAAAA", ",5000,,,50.1,8.6,,,,,,0")))
	s.AgeAll(59 * time.Second)
	assert.Empty(t, s.Evict(60*time.Second))
	assert.Equal(t, []string{"AAAAAA"}, s.AgeAndEvict(time.Second, 60*time.Second))
	assert.Equal(t, 0, s.Len())
}

func TestUnknownIDsAreTotal(t *testing.T) {
	s := NewStore()
	_, ok := s.LatestPosition("nope")
	assert.False(t, ok)
	_, ok = Latest(s, "nope", Squawk)
	assert.False(t, ok)
	_, ok = s.Get("nope")
	assert.False(t, ok)
	assert.Equal(t, UnknownCallSign, s.CallSign("nope"))
	assert.False(t, s.Remove("nope"))
	assert.Empty(t, s.IDs())

	var nilStore *Store
	assert.False(t, nilStore.Update(sbs.Message{Address: "X"}))
	assert.Equal(t, 0, nilStore.Len())
}

func TestRemove(t *testing.T) {
	s := NewStore()
	s.Update(decode(t, line(3, "AAAAAA", ",5000,,,50.1,8.6,,,,,,0")))
	assert.True(t, s.Remove("AAAAAA"))
	assert.Equal(t, 0, s.Len())
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Update(decode(t, line(3, "AAAAAA", ",5000,,,50.1,8.6,,,,,,0")))
	tr, ok := s.Get("AAAAAA")
	require.True(t, ok)
	tr.Altitude[0] = sbs.Some(1)
	tr.CallSign = "HIJACK"

	alt, ok := Latest(s, "AAAAAA", Altitude)
	require.True(t, ok)
	assert.Equal(t, 5000, alt)
	assert.Equal(t, UnknownCallSign, s.CallSign("AAAAAA"))
}

func TestConcurrentUpdatesForDifferentIDs(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for _, id := range []string{"AAAAAA", "BBBBBB"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				s.Update(decode(t, line(3, id, fmt.Sprintf(",%d,,,50.1,8.6,,,,,,0", i))))
				_ = s.Snapshot()
			}
		}(id)
	}
	wg.Wait()

	ids := s.IDs()
	sort.Strings(ids)
	assert.Equal(t, []string{"AAAAAA", "BBBBBB"}, ids)
	for _, id := range ids {
		tr, ok := s.Get(id)
		require.True(t, ok)
		assert.Len(t, tr.Altitude, 500)
		alt, _ := Latest(s, id, Altitude)
		assert.Equal(t, 499, alt)
	}
}

func TestSnapshot(t *testing.T) {
	s := NewStore()
	s.Update(decode(t, line(3, "BBBBBB", ",5000,,,50.1,8.6,,,,,,1")))
	s.Update(decode(t, line(5, "AAAAAA", "DLH1,,,,,,,,,,,0")))

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "AAAAAA", snap[0].ID)
	assert.Equal(t, "DLH1", snap[0].CallSign)
	assert.Nil(t, snap[0].Position)

	assert.Equal(t, UnknownCallSign, snap[1].CallSign)
	require.NotNil(t, snap[1].Position)
	assert.Equal(t, 5000, snap[1].Position.AltFt)
	assert.True(t, snap[1].OnGround)
	assert.Equal(t, 1, snap[1].Messages)
}
