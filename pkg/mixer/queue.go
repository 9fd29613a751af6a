package mixer

// maxQueueMessages is a hard ceiling on any one queue. Growth beyond it is
// refused rather than allowed to run away; see Design Notes on message
// queue growth.
const maxQueueMessages = 1 << 16

// msgQueue is an unordered dynamic array of messages with doubling growth —
// the same shape as this codebase's general-purpose growable buffer, here
// specialized to messages and without the blocking read side, since every
// queue in the mixer is drained synchronously by its owner rather than
// handed across a channel.
type msgQueue struct {
	msgs []message
}

func newMsgQueue(capacity int) *msgQueue {
	return &msgQueue{msgs: make([]message, 0, capacity)}
}

// append adds a message to the end of the queue. append relies on Go's
// slice growth (which doubles capacity as needed) for the "doubling
// allocation" behavior called for by the data model; it reports false,
// without modifying the queue, if the hard ceiling would be exceeded.
func (q *msgQueue) append(m message) bool {
	if len(q.msgs) >= maxQueueMessages {
		return false
	}
	q.msgs = append(q.msgs, m)
	return true
}

// appendAll copies every message from other onto q, respecting the same
// ceiling; it returns the number of messages actually appended.
func (q *msgQueue) appendAll(other *msgQueue) int {
	n := 0
	for _, m := range other.msgs {
		if !q.append(m) {
			break
		}
		n++
	}
	return n
}

func (q *msgQueue) reset() {
	q.msgs = q.msgs[:0]
}

func (q *msgQueue) len() int {
	return len(q.msgs)
}

// sortByAddr performs a stable insertion sort over the queue's messages,
// keyed by addr. Queues here are small (a handful of messages per buffer)
// and close to sorted already — an insertion sort is both simpler and
// faster than a comparison sort at this size, and it is stable, which the
// dispatch pass depends on for tie-breaking same-timestamp messages in
// queue-arrival order.
func (q *msgQueue) sortByAddr() {
	m := q.msgs
	for i := 1; i < len(m); i++ {
		v := m[i]
		j := i - 1
		for j >= 0 && m[j].addr > v.addr {
			m[j+1] = m[j]
			j--
		}
		m[j+1] = v
	}
}

// compact rewrites the queue in place, keeping only the messages for which
// keep returns true, preserving order, and truncates it to the kept count. This is
// how retained (deferred-to-next-buffer) messages survive a dispatch pass
// without reordering or allocating.
func (q *msgQueue) compact(keep func(message) bool) {
	w := 0
	for _, m := range q.msgs {
		if keep(m) {
			q.msgs[w] = m
			w++
		}
	}
	q.msgs = q.msgs[:w]
}
