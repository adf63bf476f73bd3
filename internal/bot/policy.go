package bot

// Policy decides what a chat user may do.
type Policy interface {
	CanAdminister(userID int64) bool
	CanDrive(userID int64) bool
}

// AllowList is a Policy over fixed id lists. Admins may also drive.
type AllowList struct {
	admins  map[int64]struct{}
	drivers map[int64]struct{}
}

func NewAllowList(admins, drivers []int64) *AllowList {
	p := &AllowList{
		admins:  make(map[int64]struct{}, len(admins)),
		drivers: make(map[int64]struct{}, len(drivers)),
	}
	for _, id := range admins {
		p.admins[id] = struct{}{}
	}
	for _, id := range drivers {
		p.drivers[id] = struct{}{}
	}
	return p
}

func (p *AllowList) CanAdminister(userID int64) bool {
	_, ok := p.admins[userID]
	return ok
}

func (p *AllowList) CanDrive(userID int64) bool {
	if p.CanAdminister(userID) {
		return true
	}
	_, ok := p.drivers[userID]
	return ok
}
