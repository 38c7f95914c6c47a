package game

import "strconv"

type BuildingID int64

func (id BuildingID) String() string { return strconv.FormatInt(int64(id), 10) }

type PlayerID int64

func (id PlayerID) String() string { return strconv.FormatInt(int64(id), 10) }

// ClanID zero means the player or structure belongs to no clan.
type ClanID int64

type TerritoryID int64

func (id TerritoryID) String() string { return strconv.FormatInt(int64(id), 10) }
