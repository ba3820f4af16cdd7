package model

// QuestionTag classifies who a question is aimed at
type QuestionTag string

const (
	TagNone   QuestionTag = "none"
	TagFriend QuestionTag = "friend"
	TagRandom QuestionTag = "random"
)

// Rate categories run from MinRate (mildest) to MaxRate (most intense)
const (
	MinRate = 1
	MaxRate = 5
)

// Question is an immutable record of the question pool.
// Field names in BSON follow the legacy documents: question, rate, type.
type Question struct {
	ID      string      `json:"id" bson:"_id,omitempty"`
	Text    string      `json:"text" bson:"question" validate:"required"`
	TextAlt string      `json:"textAlt,omitempty" bson:"questionAlt,omitempty"`
	Rate    int         `json:"rate" bson:"rate" validate:"min=1,max=5"`
	Tag     QuestionTag `json:"tag" bson:"type" validate:"omitempty,oneof=none friend random"`
}

// NormalizedTag treats an empty tag as TagNone
func (q Question) NormalizedTag() QuestionTag {
	if q.Tag == "" {
		return TagNone
	}
	return q.Tag
}

// HasValidRate reports whether the rate is inside the 1..5 range
func (q Question) HasValidRate() bool {
	return q.Rate >= MinRate && q.Rate <= MaxRate
}
