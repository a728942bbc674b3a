package service

import "github.com/d60-Lab/timeline-fanout/internal/model"

type EdgeKind string

const (
	EdgeFollow    EdgeKind = "follow"
	EdgeSubscribe EdgeKind = "subscribe"
	EdgeList      EdgeKind = "list"
)

// Edge 一条能导致投递的关系：AccountID 接收 TargetAccountID 的内容。
// list 类型中 AccountID 是列表所有者，ListID 非 0。
type Edge struct {
	Kind            EdgeKind `json:"kind"`
	AccountID       int64    `json:"account_id,string"`
	TargetAccountID int64    `json:"target_account_id,string"`
	ListID          int64    `json:"list_id,string,omitempty"`
	ShowReblogs     bool     `json:"show_reblogs"`
	Notify          bool     `json:"notify"`
	Delivery        bool     `json:"delivery"`
	MediaOnly       bool     `json:"media_only"`
}

func edgeFromFollow(f *model.Follow) Edge {
	return Edge{
		Kind:            EdgeFollow,
		AccountID:       f.AccountID,
		TargetAccountID: f.TargetAccountID,
		ShowReblogs:     f.ShowReblogs,
		Notify:          f.Notify,
		Delivery:        f.Delivery,
	}
}

func edgeFromSubscribe(s *model.AccountSubscribe) Edge {
	return Edge{
		Kind:            EdgeSubscribe,
		AccountID:       s.AccountID,
		TargetAccountID: s.TargetAccountID,
		ListID:          s.ListID,
		ShowReblogs:     s.ShowReblogs,
		MediaOnly:       s.MediaOnly,
		Delivery:        true,
	}
}

// deliveryFilter 投递前的过滤条件，按 转发 → 媒体 → 可见性 的顺序应用
type deliveryFilter struct {
	showReblogs bool
	mediaOnly   bool
	// subscription 订阅只投递 public/unlisted
	subscription bool
}

// filterFollow is the filter of a delivery follow.
func filterFollow(f *model.Follow) deliveryFilter {
	return deliveryFilter{showReblogs: f.ShowReblogs}
}

func filterSubscribe(s *model.AccountSubscribe) deliveryFilter {
	return deliveryFilter{showReblogs: s.ShowReblogs, mediaOnly: s.MediaOnly, subscription: true}
}

// merge combines two edges into the most permissive filter.
func (f deliveryFilter) merge(o deliveryFilter) deliveryFilter {
	return deliveryFilter{
		showReblogs:  f.showReblogs || o.showReblogs,
		mediaOnly:    f.mediaOnly && o.mediaOnly,
		subscription: f.subscription && o.subscription,
	}
}

// accepts applies the flag gates; the visibility oracle runs afterwards.
func (f deliveryFilter) accepts(s *model.Status) bool {
	if s.IsReblog() && !f.showReblogs {
		return false
	}
	proper := s.Proper()
	if f.mediaOnly && !proper.HasMedia {
		return false
	}
	if f.subscription {
		switch proper.Visibility {
		case model.VisibilityPublic, model.VisibilityUnlisted:
		default:
			return false
		}
	}
	return true
}
