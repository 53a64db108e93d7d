package imap

import (
	"github.com/jefferyq2/go-imap-core/internal/imapnum"
)

// UID is a message UID.
type UID uint32

// NumSet is a set of numbers identifying messages. NumSet is either a SeqSet
// or a UIDSet.
type NumSet interface {
	// String returns the IMAP representation of the message number set.
	String() string
	// Dynamic returns true if the set contains "*" or "n:*" ranges.
	Dynamic() bool
}

var (
	_ NumSet = SeqSet(nil)
	_ NumSet = UIDSet(nil)
)

// SeqSet is a set of message sequence numbers.
type SeqSet imapnum.Set

// SeqSetNum returns a new SeqSet containing the specified sequence numbers.
func SeqSetNum(nums ...uint32) SeqSet {
	var s SeqSet
	s.AddNum(nums...)
	return s
}

func (s SeqSet) String() string {
	return imapnum.Set(s).String()
}

// Dynamic returns true if the set contains "*" or "n:*" values.
func (s SeqSet) Dynamic() bool {
	return imapnum.Set(s).Dynamic()
}

// Contains returns true if the non-zero sequence number is contained in the set.
func (s SeqSet) Contains(seqNum uint32) bool {
	return imapnum.Set(s).Contains(seqNum)
}

// Nums returns a slice of all sequence numbers contained in the set.
func (s SeqSet) Nums() ([]uint32, bool) {
	return imapnum.Set(s).Nums()
}

// AddNum inserts new sequence numbers into the set. The value 0 represents "*".
func (s *SeqSet) AddNum(nums ...uint32) {
	(*imapnum.Set)(s).AddNum(nums...)
}

// AddRange inserts a new range into the set.
func (s *SeqSet) AddRange(start, stop uint32) {
	(*imapnum.Set)(s).AddRange(start, stop)
}

// AddSet inserts all sequence numbers from other into s.
func (s *SeqSet) AddSet(other SeqSet) {
	(*imapnum.Set)(s).AddSet(imapnum.Set(other))
}

// ParseSeqSet parses a sequence set in IMAP wire form ("1,3:5,9:*").
func ParseSeqSet(s string) (SeqSet, error) {
	set, err := imapnum.ParseSet(s)
	return SeqSet(set), err
}

// UIDSet is a set of message UIDs.
type UIDSet imapnum.Set

// UIDSetNum returns a new UIDSet containing the specified UIDs.
func UIDSetNum(uids ...UID) UIDSet {
	var s UIDSet
	s.AddNum(uids...)
	return s
}

func (s UIDSet) String() string {
	return imapnum.Set(s).String()
}

// Dynamic returns true if the set contains "*" or "n:*" values.
func (s UIDSet) Dynamic() bool {
	return imapnum.Set(s).Dynamic()
}

// Contains returns true if the non-zero UID is contained in the set.
func (s UIDSet) Contains(uid UID) bool {
	return imapnum.Set(s).Contains(uint32(uid))
}

// Nums returns a slice of all UIDs contained in the set.
func (s UIDSet) Nums() ([]UID, bool) {
	nums, ok := imapnum.Set(s).Nums()
	if !ok {
		return nil, false
	}
	uids := make([]UID, len(nums))
	for i, n := range nums {
		uids[i] = UID(n)
	}
	return uids, true
}

// AddNum inserts new UIDs into the set. The value 0 represents "*".
func (s *UIDSet) AddNum(uids ...UID) {
	nums := make([]uint32, len(uids))
	for i, uid := range uids {
		nums[i] = uint32(uid)
	}
	(*imapnum.Set)(s).AddNum(nums...)
}

// AddRange inserts a new range into the set.
func (s *UIDSet) AddRange(start, stop UID) {
	(*imapnum.Set)(s).AddRange(uint32(start), uint32(stop))
}

// AddSet inserts all UIDs from other into s.
func (s *UIDSet) AddSet(other UIDSet) {
	(*imapnum.Set)(s).AddSet(imapnum.Set(other))
}

// ParseUIDSet parses a UID set in IMAP wire form ("1,3:5,9:*").
func ParseUIDSet(s string) (UIDSet, error) {
	set, err := imapnum.ParseSet(s)
	return UIDSet(set), err
}
