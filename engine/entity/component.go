package entity

// ComponentTag identifies a component slot; at most one component per tag is
// attached to an entity
type ComponentTag uint8

// All component tags
const (
	TagAnimation ComponentTag = iota + 1
	TagAttachment
	TagSpecialRender
)

func (tag ComponentTag) String() string {
	switch tag {
	case TagAnimation:
		return "Animation"
	case TagAttachment:
		return "Attachment"
	case TagSpecialRender:
		return "SpecialRender"
	}
	return "Unknown"
}

// Component is the interface of entity components
type Component interface {
	ComponentTag() ComponentTag
}

// AnimationComponent captures a constant rotation synthesized from the
// object's angular velocity
type AnimationComponent struct {
	Axis            Vector3
	RoundsPerSecond Coord
}

// ComponentTag returns TagAnimation
func (c *AnimationComponent) ComponentTag() ComponentTag { return TagAnimation }

// AttachmentComponent marks an entity worn on an avatar attachment point
type AttachmentComponent struct {
	Point uint8
}

// ComponentTag returns TagAttachment
func (c *AttachmentComponent) ComponentTag() ComponentTag { return TagAttachment }

// FoliageKind is the foliage sub-type of special-render entities
type FoliageKind uint8

// All foliage kinds
const (
	FoliageGrass FoliageKind = iota + 1
	FoliageTree
	FoliageNewTree
)

func (fk FoliageKind) String() string {
	switch fk {
	case FoliageGrass:
		return "Grass"
	case FoliageTree:
		return "Tree"
	case FoliageNewTree:
		return "NewTree"
	}
	return "Unknown"
}

// SpecialRenderComponent marks an entity that is not rendered from its shape
// but procedurally (foliage)
type SpecialRenderComponent struct {
	Foliage FoliageKind
}

// ComponentTag returns TagSpecialRender
func (c *SpecialRenderComponent) ComponentTag() ComponentTag { return TagSpecialRender }
