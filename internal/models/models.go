package models

// All lists every table the application migrates, parents first.
func All() []interface{} {
	return []interface{}{&User{}, &Category{}, &Location{}, &Post{}, &Comment{}, &ActivityLog{}}
}
