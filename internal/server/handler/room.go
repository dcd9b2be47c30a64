package handler

import (
	"github.com/palemoky/scatters/internal/game/room"
	"github.com/palemoky/scatters/internal/game/session"
	"github.com/palemoky/scatters/internal/protocol"
)

// handleCreateRoom 创建房间，创建者自动成为房主（但不自动加入）
func (h *Handler) handleCreateRoom(client Client, msg *protocol.Message) {
	name, ok := requireName(client)
	if !ok {
		return
	}
	payload, ok := parsePayload[protocol.CreateRoomPayload](client, msg)
	if !ok {
		return
	}
	if payload.Name == "" {
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeInvalidMsg, "room name must not be empty"))
		return
	}

	r, err := h.roomManager.CreateRoom(payload.Name,
		session.Mode(payload.Mode), room.Visibility(payload.Visibility), name)
	if err != nil {
		sendError(client, err)
		return
	}

	h.AttachRoom(r)

	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomCreated, protocol.RoomCreatedPayload{
		Room: r.Info(),
	}))
}

// handleJoinRoom 加入房间
func (h *Handler) handleJoinRoom(client Client, msg *protocol.Message) {
	name, ok := requireName(client)
	if !ok {
		return
	}
	payload, ok := parsePayload[protocol.JoinRoomPayload](client, msg)
	if !ok {
		return
	}

	info, err := h.roomManager.AddPlayerToRoom(payload.Room, name)
	if err != nil {
		sendError(client, err)
		return
	}
	client.AddRoom(payload.Room)

	players, _ := h.roomManager.ListPlayersInRoom(payload.Room)
	client.SendMessage(protocol.MustNewMessage(protocol.MsgJoinedRoom, protocol.JoinedRoomPayload{
		Room:    payload.Room,
		Player:  info,
		Players: players,
	}))

	h.broadcastPlayers(payload.Room)
}

// handleLeaveRoom 离开房间
func (h *Handler) handleLeaveRoom(client Client, msg *protocol.Message) {
	name, ok := requireName(client)
	if !ok {
		return
	}
	payload, ok := parsePayload[protocol.LeaveRoomPayload](client, msg)
	if !ok {
		return
	}

	if err := h.roomManager.RemovePlayerFromRoom(payload.Room, name); err != nil {
		sendError(client, err)
		return
	}
	client.RemoveRoom(payload.Room)

	h.broadcastPlayers(payload.Room)
}

// handleListRooms 可加入的公开房间（排除自己已在的）
func (h *Handler) handleListRooms(client Client) {
	rooms := h.roomManager.ListRoomsExcluding(client.GetRooms())
	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomsList, protocol.RoomsListPayload{
		Rooms: rooms,
	}))
}

// handleMyRooms 自己所在的房间（包括私密房间）
func (h *Handler) handleMyRooms(client Client) {
	name, ok := requireName(client)
	if !ok {
		return
	}
	rooms := h.roomManager.FindRoomsForPlayer(name)
	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomsList, protocol.RoomsListPayload{
		Rooms: rooms,
	}))
}

// handleInvitePlayer 邀请玩家进私密房间，被邀请人在线时实时推送
func (h *Handler) handleInvitePlayer(client Client, msg *protocol.Message) {
	name, ok := requireName(client)
	if !ok {
		return
	}
	payload, ok := parsePayload[protocol.InvitePlayerPayload](client, msg)
	if !ok {
		return
	}

	if err := h.roomManager.InvitePlayer(payload.Room, payload.Username, name); err != nil {
		sendError(client, err)
		return
	}

	if invitee := h.gateway.ClientByName(payload.Username); invitee != nil {
		invitee.SendMessage(protocol.MustNewMessage(protocol.MsgInvited, protocol.InvitedPayload{
			Room: payload.Room,
			From: name,
		}))
	}
}

// broadcastPlayers 广播房间成员列表
func (h *Handler) broadcastPlayers(roomName string) {
	players, err := h.roomManager.ListPlayersInRoom(roomName)
	if err != nil {
		return
	}
	h.gateway.BroadcastToRoom(roomName, protocol.MustNewMessage(protocol.MsgPlayersUpdated, protocol.PlayersUpdatedPayload{
		Room:    roomName,
		Players: players,
	}))
}
