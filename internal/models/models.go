package models

// All lists every persisted model in foreign-key dependency order.
func All() []any {
	return []any{
		&User{},
		&Job{},
		&Phase{},
		&Task{},
		&Material{},
		&TaskAssignment{},
		&MaterialAssignment{},
		&Note{},
		&InviteCode{},
		&Floorplan{},
		&AuditLog{},
	}
}
