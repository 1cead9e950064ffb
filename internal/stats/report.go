package stats

import (
	"sort"
	"time"
)

// Matrix accumulates per-sender, per-channel message counts across the whole
// run. Merging is additive: a sender appearing in several channels keeps the
// sum of every contribution. Sender and channel ordering is first-seen.
type Matrix struct {
	counts      map[string]map[string]int
	senders     []string
	channelKeys []string
	seenSender  map[string]bool
	seenChannel map[string]bool
}

// NewMatrix returns an empty report matrix.
func NewMatrix() *Matrix {
	return &Matrix{
		counts:      map[string]map[string]int{},
		seenSender:  map[string]bool{},
		seenChannel: map[string]bool{},
	}
}

// Merge adds one channel's tally into the matrix under channelKey. Counts
// for senders already present accumulate, never overwrite. Empty tallies
// leave the matrix unchanged, including its channel key list.
func (m *Matrix) Merge(channelKey string, tally Tally) {
	if len(tally) == 0 {
		return
	}
	if !m.seenChannel[channelKey] {
		m.seenChannel[channelKey] = true
		m.channelKeys = append(m.channelKeys, channelKey)
	}

	// Iterate senders deterministically so first-seen row order is stable
	// across runs with identical input.
	senders := make([]string, 0, len(tally))
	for sender := range tally {
		senders = append(senders, sender)
	}
	sort.Strings(senders)

	for _, sender := range senders {
		if !m.seenSender[sender] {
			m.seenSender[sender] = true
			m.senders = append(m.senders, sender)
			m.counts[sender] = map[string]int{}
		}
		m.counts[sender][channelKey] += tally[sender]
	}
}

// Empty reports whether no counts were merged.
func (m *Matrix) Empty() bool {
	return len(m.senders) == 0
}

// ChannelKeys returns the channel column keys in first-seen order.
func (m *Matrix) ChannelKeys() []string {
	return append([]string(nil), m.channelKeys...)
}

// Total returns the sum of the sender's counts across all channels.
func (m *Matrix) Total(sender string) int {
	total := 0
	for _, n := range m.counts[sender] {
		total += n
	}
	return total
}

// Count returns the sender's count for one channel key, zero when absent.
func (m *Matrix) Count(sender, channelKey string) int {
	return m.counts[sender][channelKey]
}

// Row is one line of the final report.
type Row struct {
	Sender string
	Total  int
	// PerChannel holds counts aligned with the matrix channel key order.
	PerChannel []int
}

// Rows renders the matrix sorted by descending total. Ties keep first-seen
// sender order (stable sort).
func (m *Matrix) Rows() []Row {
	rows := make([]Row, 0, len(m.senders))
	for _, sender := range m.senders {
		row := Row{Sender: sender, Total: m.Total(sender)}
		for _, key := range m.channelKeys {
			row.PerChannel = append(row.PerChannel, m.Count(sender, key))
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Total > rows[j].Total
	})
	return rows
}

// Report is the finished result of one aggregation cycle.
type Report struct {
	Window      Window
	Matrix      *Matrix
	GeneratedAt time.Time
	// ChannelsScanned counts every resolved target channel, including the
	// ones that contributed no in-range messages.
	ChannelsScanned int
}
