package service

import (
	"context"
	"errors"

	"github.com/d60-Lab/timeline-fanout/internal/jobs"
	"github.com/d60-Lab/timeline-fanout/internal/model"
	"github.com/d60-Lab/timeline-fanout/internal/repository"
)

// ListJob list.cleared 任务载荷
type ListJob struct {
	ListID int64 `json:"list_id,string"`
}

// FollowOptions 关注选项
type FollowOptions struct {
	ShowReblogs bool
	Notify      bool
	Delivery    bool
}

// SubscribeOptions 订阅选项；ListID 为 0 表示投递到 home
type SubscribeOptions struct {
	ListID      int64
	ShowReblogs bool
	MediaOnly   bool
}

// RelationshipService 关系链服务：写关系后异步回填/清理时间线
type RelationshipService interface {
	Follow(ctx context.Context, fromID, toID int64, opts FollowOptions) error
	Unfollow(ctx context.Context, fromID, toID int64) error
	Subscribe(ctx context.Context, fromID, toID int64, opts SubscribeOptions) error
	Unsubscribe(ctx context.Context, fromID, toID, listID int64) error
	CreateList(ctx context.Context, ownerID int64, title string) (*model.List, error)
	// GetList 返回 ownerID 名下的列表，不属于 ownerID 时返回 ErrForbidden
	GetList(ctx context.Context, ownerID, listID int64) (*model.List, error)
	AddToList(ctx context.Context, ownerID, listID, memberID int64) error
	RemoveFromList(ctx context.Context, ownerID, listID, memberID int64) error
	DeleteList(ctx context.Context, ownerID, listID int64) error
	ListFollowing(ctx context.Context, accountID int64, page, pageSize int) ([]int64, error)
	ListFollowers(ctx context.Context, accountID int64, page, pageSize int) ([]int64, error)
}

type relationshipService struct {
	rels     repository.RelationshipRepository
	accounts repository.AccountRepository
	queue    *jobs.Queue
}

func NewRelationshipService(rels repository.RelationshipRepository, accounts repository.AccountRepository, queue *jobs.Queue) RelationshipService {
	return &relationshipService{rels: rels, accounts: accounts, queue: queue}
}

func (s *relationshipService) Follow(ctx context.Context, fromID, toID int64, opts FollowOptions) error {
	if fromID == toID {
		return ErrFollowSelf
	}
	if _, err := s.accounts.Find(ctx, toID); err != nil {
		return err
	}
	prev, err := s.rels.FindFollow(ctx, fromID, toID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	f := &model.Follow{
		AccountID:       fromID,
		TargetAccountID: toID,
		ShowReblogs:     opts.ShowReblogs,
		Notify:          opts.Notify,
		Delivery:        opts.Delivery,
	}
	if err := s.rels.Follow(ctx, f); err != nil {
		return err
	}
	edge := edgeFromFollow(f)
	// 重复关注收窄了投递范围（关闭 delivery 或 show_reblogs），已投递的内容要重新筛选
	if prev != nil && prev.Delivery && (!f.Delivery || (prev.ShowReblogs && !f.ShowReblogs)) {
		if err := s.queue.Enqueue(ctx, jobs.KindRelationshipRemoved, edge); err != nil {
			return err
		}
	}
	return s.queue.Enqueue(ctx, jobs.KindRelationshipCreated, edge)
}

func (s *relationshipService) Unfollow(ctx context.Context, fromID, toID int64) error {
	deleted, err := s.rels.Unfollow(ctx, fromID, toID)
	if err != nil || !deleted {
		return err
	}
	return s.queue.Enqueue(ctx, jobs.KindRelationshipRemoved, Edge{Kind: EdgeFollow, AccountID: fromID, TargetAccountID: toID})
}

func (s *relationshipService) GetList(ctx context.Context, ownerID, listID int64) (*model.List, error) {
	l, err := s.rels.FindList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if l.AccountID != ownerID {
		return nil, ErrForbidden
	}
	return l, nil
}

func (s *relationshipService) ownedList(ctx context.Context, ownerID, listID int64) error {
	_, err := s.GetList(ctx, ownerID, listID)
	return err
}

func (s *relationshipService) Subscribe(ctx context.Context, fromID, toID int64, opts SubscribeOptions) error {
	if fromID == toID {
		return ErrFollowSelf
	}
	if opts.ListID != 0 {
		if err := s.ownedList(ctx, fromID, opts.ListID); err != nil {
			return err
		}
	}
	if _, err := s.accounts.Find(ctx, toID); err != nil {
		return err
	}
	prev, err := s.rels.FindSubscribe(ctx, fromID, toID, opts.ListID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	sub := &model.AccountSubscribe{
		AccountID:       fromID,
		TargetAccountID: toID,
		ListID:          opts.ListID,
		ShowReblogs:     opts.ShowReblogs,
		MediaOnly:       opts.MediaOnly,
	}
	if err := s.rels.Subscribe(ctx, sub); err != nil {
		return err
	}
	edge := edgeFromSubscribe(sub)
	if prev != nil && ((prev.ShowReblogs && !sub.ShowReblogs) || (!prev.MediaOnly && sub.MediaOnly)) {
		if err := s.queue.Enqueue(ctx, jobs.KindRelationshipRemoved, edge); err != nil {
			return err
		}
	}
	return s.queue.Enqueue(ctx, jobs.KindRelationshipCreated, edge)
}

func (s *relationshipService) Unsubscribe(ctx context.Context, fromID, toID, listID int64) error {
	deleted, err := s.rels.Unsubscribe(ctx, fromID, toID, listID)
	if err != nil || !deleted {
		return err
	}
	return s.queue.Enqueue(ctx, jobs.KindRelationshipRemoved, Edge{Kind: EdgeSubscribe, AccountID: fromID, TargetAccountID: toID, ListID: listID})
}

func (s *relationshipService) CreateList(ctx context.Context, ownerID int64, title string) (*model.List, error) {
	l := &model.List{AccountID: ownerID, Title: title}
	if err := s.rels.CreateList(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *relationshipService) AddToList(ctx context.Context, ownerID, listID, memberID int64) error {
	if err := s.ownedList(ctx, ownerID, listID); err != nil {
		return err
	}
	if _, err := s.accounts.Find(ctx, memberID); err != nil {
		return err
	}
	if err := s.rels.AddListMember(ctx, listID, memberID); err != nil {
		return err
	}
	return s.queue.Enqueue(ctx, jobs.KindRelationshipCreated, Edge{Kind: EdgeList, AccountID: ownerID, TargetAccountID: memberID, ListID: listID, ShowReblogs: true, Delivery: true})
}

func (s *relationshipService) RemoveFromList(ctx context.Context, ownerID, listID, memberID int64) error {
	if err := s.ownedList(ctx, ownerID, listID); err != nil {
		return err
	}
	deleted, err := s.rels.RemoveListMember(ctx, listID, memberID)
	if err != nil || !deleted {
		return err
	}
	return s.queue.Enqueue(ctx, jobs.KindRelationshipRemoved, Edge{Kind: EdgeList, AccountID: ownerID, TargetAccountID: memberID, ListID: listID})
}

func (s *relationshipService) DeleteList(ctx context.Context, ownerID, listID int64) error {
	if err := s.ownedList(ctx, ownerID, listID); err != nil {
		return err
	}
	if err := s.rels.DeleteList(ctx, listID); err != nil {
		return err
	}
	return s.queue.Enqueue(ctx, jobs.KindListCleared, ListJob{ListID: listID})
}

func pageOffset(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return (page - 1) * pageSize, pageSize
}

func (s *relationshipService) ListFollowing(ctx context.Context, accountID int64, page, pageSize int) ([]int64, error) {
	offset, limit := pageOffset(page, pageSize)
	items, err := s.rels.ListFollowings(ctx, accountID, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]int64, len(items))
	for i, it := range items {
		res[i] = it.TargetAccountID
	}
	return res, nil
}

func (s *relationshipService) ListFollowers(ctx context.Context, accountID int64, page, pageSize int) ([]int64, error) {
	offset, limit := pageOffset(page, pageSize)
	items, err := s.rels.ListFollowers(ctx, accountID, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]int64, len(items))
	for i, it := range items {
		res[i] = it.AccountID
	}
	return res, nil
}
