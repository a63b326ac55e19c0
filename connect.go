package flowcore

import "fmt"

// Connect links src to dst and, on success, optionally wires the cascading
// watchers that cross-propagate closure and error between them:
//
//   - upstream (watches dst, reacting to dst's own transitions): dst
//     closing or draining cancels src's registrations toward dst; dst
//     erroring either propagates the error back onto src (when
//     downstream is also true — a join) or merely cancels (a siphon).
//   - downstream (watches src): src draining closes dst; src erroring
//     errors dst.
//   - a cleanup watcher on src unregisters the upstream watcher on dst
//     once src itself reaches a terminal mode.
//
// All cascading mutation runs on the cleanup queue, never synchronously
// inside the watcher callback, to avoid recursive locking (spec §4.5,
// §9).
func Connect(src, dst *Node, upstream, downstream bool, pre, post func(success bool)) bool {
	edge := Edge{Next: dst, Description: dst.Description()}
	if !src.Link("", edge, pre, post) {
		return false
	}

	if upstream {
		upstreamName := fmt.Sprintf("flowcore.connect.upstream:%d->%d", src.id, dst.id)
		dst.OnStateChanged(upstreamName, func(mode Mode, _ int, err error) {
			switch mode {
			case ModeClosed, ModeDrained:
				src.cleanupQueue().Enqueue(func() { src.Unlink(edge) })
			case ModeError:
				src.cleanupQueue().Enqueue(func() {
					if downstream {
						src.Error(err, false)
					} else {
						src.Unlink(edge)
					}
				})
			}
		})

		cleanupName := fmt.Sprintf("flowcore.connect.cleanup:%d->%d", src.id, dst.id)
		src.OnStateChanged(cleanupName, func(mode Mode, _ int, _ error) {
			if mode.Terminal() {
				src.cleanupQueue().Enqueue(func() { dst.Cancel(upstreamName) })
			}
		})
	}

	if downstream {
		downstreamName := fmt.Sprintf("flowcore.connect.downstream:%d->%d", src.id, dst.id)
		src.OnStateChanged(downstreamName, func(mode Mode, _ int, err error) {
			switch mode {
			case ModeDrained:
				src.cleanupQueue().Enqueue(func() { dst.Close(false) })
			case ModeError:
				src.cleanupQueue().Enqueue(func() { dst.Error(err, false) })
			}
		})
	}

	return true
}

// Siphon connects src to dst with upstream cascading only: dst's closure
// cancels the link, dst's error merely cancels it too (it is not
// propagated back onto src).
func Siphon(src, dst *Node, pre, post func(success bool)) bool {
	return Connect(src, dst, true, false, pre, post)
}

// Join connects src to dst with both upstream and downstream cascading:
// either side's closure or error propagates to the other.
func Join(src, dst *Node, pre, post func(success bool)) bool {
	return Connect(src, dst, true, true, pre, post)
}
