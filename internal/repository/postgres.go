package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/prathamsaiya01/apna-adda-1/internal/errs"
	"github.com/prathamsaiya01/apna-adda-1/internal/model"
)

// Postgres implements RoomRepository on GORM.
type Postgres struct {
	db *gorm.DB
}

// NewPostgres creates the postgres-backed repository.
func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

func (r *Postgres) Create(ctx context.Context, room *model.Room) error {
	ent := roomToEntity(room)
	if err := r.db.WithContext(ctx).Create(ent).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.Conflict("room code already in use")
		}
		return err
	}
	room.CreatedAt = ent.CreatedAt
	room.UpdatedAt = ent.UpdatedAt
	return nil
}

func (r *Postgres) FindByID(ctx context.Context, id string) (*model.Room, error) {
	var ent model.RoomEntity
	err := r.db.WithContext(ctx).
		Preload("Players", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Where("id = ?", id).First(&ent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrRoomNotFound
		}
		return nil, err
	}
	return entityToRoom(&ent), nil
}

func (r *Postgres) FindByCode(ctx context.Context, code string) (*model.Room, error) {
	var ent model.RoomEntity
	err := r.db.WithContext(ctx).
		Preload("Players", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Where("code = ?", code).First(&ent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrRoomNotFound
		}
		return nil, err
	}
	return entityToRoom(&ent), nil
}

func (r *Postgres) List(ctx context.Context, gameKey string) ([]model.Room, error) {
	q := r.db.WithContext(ctx).
		Preload("Players", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Order("created_at DESC")
	if gameKey != "" {
		q = q.Where("game_key = ?", gameKey)
	}
	var ents []model.RoomEntity
	if err := q.Find(&ents).Error; err != nil {
		return nil, err
	}
	out := make([]model.Room, 0, len(ents))
	for i := range ents {
		out = append(out, *entityToRoom(&ents[i]))
	}
	return out, nil
}

// Update locks the room row (SELECT ... FOR UPDATE), applies mutate and
// persists the result in one transaction, so concurrent mutations on the
// same room serialize at the database.
func (r *Postgres) Update(ctx context.Context, id string, mutate func(room *model.Room) error) (*model.Room, error) {
	var out *model.Room
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ent model.RoomEntity
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&ent).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrRoomNotFound
			}
			return err
		}
		if err := tx.Order("seq ASC").Where("room_id = ?", id).Find(&ent.Players).Error; err != nil {
			return err
		}

		room := entityToRoom(&ent)
		before := room.Clone()
		if err := mutate(room); err != nil {
			return err
		}

		if err := tx.Model(&model.RoomEntity{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":     string(room.Status),
			"updated_at": time.Now(),
		}).Error; err != nil {
			return err
		}
		if err := syncPlayers(tx, id, before.Players, room.Players); err != nil {
			return err
		}
		out = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// syncPlayers reconciles the room_players rows with the mutated membership.
// Members are only ever appended or removed, never reordered.
func syncPlayers(tx *gorm.DB, roomID string, before, after []model.Player) error {
	prev := make(map[string]bool, len(before))
	for _, p := range before {
		prev[p.UserID] = true
	}
	next := make(map[string]bool, len(after))
	for _, p := range after {
		next[p.UserID] = true
		if !prev[p.UserID] {
			row := model.RoomPlayer{
				RoomID:   roomID,
				UserID:   p.UserID,
				Name:     p.Name,
				JoinedAt: p.JoinedAt,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
	}
	for _, p := range before {
		if !next[p.UserID] {
			if err := tx.Where("room_id = ? AND user_id = ?", roomID, p.UserID).
				Delete(&model.RoomPlayer{}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Postgres) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&model.RoomEntity{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrRoomNotFound
		}
		return tx.Where("room_id = ?", id).Delete(&model.RoomPlayer{}).Error
	})
}

func (r *Postgres) CodeExists(ctx context.Context, code string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.RoomEntity{}).
		Where("code = ?", code).Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func roomToEntity(room *model.Room) *model.RoomEntity {
	ent := &model.RoomEntity{
		ID:         room.ID,
		Code:       room.Code,
		Name:       room.Name,
		GameKey:    room.GameKey,
		MaxPlayers: room.MaxPlayers,
		HostID:     room.HostID,
		Status:     string(room.Status),
	}
	for _, p := range room.Players {
		ent.Players = append(ent.Players, model.RoomPlayer{
			RoomID:   room.ID,
			UserID:   p.UserID,
			Name:     p.Name,
			JoinedAt: p.JoinedAt,
		})
	}
	return ent
}

func entityToRoom(ent *model.RoomEntity) *model.Room {
	room := &model.Room{
		ID:         ent.ID,
		Code:       ent.Code,
		Name:       ent.Name,
		GameKey:    ent.GameKey,
		MaxPlayers: ent.MaxPlayers,
		HostID:     ent.HostID,
		Status:     model.RoomStatus(ent.Status),
		Players:    make([]model.Player, 0, len(ent.Players)),
		CreatedAt:  ent.CreatedAt,
		UpdatedAt:  ent.UpdatedAt,
	}
	for _, p := range ent.Players {
		room.Players = append(room.Players, model.Player{
			UserID:   p.UserID,
			Name:     p.Name,
			JoinedAt: p.JoinedAt,
		})
	}
	return room
}
