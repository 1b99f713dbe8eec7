package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type BlockType string

const (
	BlockHeading   BlockType = "heading"
	BlockParagraph BlockType = "paragraph"
	BlockCode      BlockType = "code"
	BlockVideo     BlockType = "video"
	BlockImage     BlockType = "image"
	BlockPractice  BlockType = "practice"
)

// ContentBlock (Блок контента урока). Data хранит полезную нагрузку
// варианта, заданного Type.
type ContentBlock struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	LessonID uint      `gorm:"index;not null" json:"lesson_id"`
	Type     BlockType `gorm:"size:20;not null" json:"type"`
	Position int       `json:"position"`

	Data datatypes.JSON `json:"data"`
}

// BlockPayload - один из вариантов содержимого блока.
type BlockPayload interface {
	Kind() BlockType
	validate() error
}

type HeadingBlock struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

type ParagraphBlock struct {
	Text string `json:"text"`
}

type CodeBlock struct {
	Language string `json:"language,omitempty"`
	Code     string `json:"code"`
}

type VideoBlock struct {
	VideoID string `json:"video_id"`
}

type ImageBlock struct {
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

type PracticeBlock struct {
	Description     string `json:"description"`
	TaskType        string `json:"task_type,omitempty"`
	ValidationRegex string `json:"validation_regex,omitempty"`
	Placeholder     string `json:"placeholder,omitempty"`
}

func (HeadingBlock) Kind() BlockType   { return BlockHeading }
func (ParagraphBlock) Kind() BlockType { return BlockParagraph }
func (CodeBlock) Kind() BlockType      { return BlockCode }
func (VideoBlock) Kind() BlockType     { return BlockVideo }
func (ImageBlock) Kind() BlockType     { return BlockImage }
func (PracticeBlock) Kind() BlockType  { return BlockPractice }

func (b HeadingBlock) validate() error {
	if strings.TrimSpace(b.Text) == "" {
		return errors.New("heading text is required")
	}
	if b.Level < 0 || b.Level > 6 {
		return errors.New("heading level must be at most 6")
	}
	return nil
}

func (b ParagraphBlock) validate() error {
	if strings.TrimSpace(b.Text) == "" {
		return errors.New("paragraph text is required")
	}
	return nil
}

func (b CodeBlock) validate() error {
	if b.Code == "" {
		return errors.New("code is required")
	}
	return nil
}

func (b VideoBlock) validate() error {
	if strings.TrimSpace(b.VideoID) == "" {
		return errors.New("video_id is required")
	}
	return nil
}

func (b ImageBlock) validate() error {
	if strings.TrimSpace(b.Src) == "" {
		return errors.New("image src is required")
	}
	return nil
}

func (b PracticeBlock) validate() error {
	if strings.TrimSpace(b.Description) == "" {
		return errors.New("practice description is required")
	}
	if _, err := b.Pattern(); err != nil {
		return fmt.Errorf("invalid validation_regex: %w", err)
	}
	return nil
}

// Pattern компилирует регулярку проверки, привязанную к началу ответа.
// Если регулярки нет, возвращает nil.
func (b PracticeBlock) Pattern() (*regexp.Regexp, error) {
	if b.ValidationRegex == "" {
		return nil, nil
	}
	return regexp.Compile(`^(?:` + b.ValidationRegex + `)`)
}

func emptyPayload(t BlockType) (BlockPayload, error) {
	switch t {
	case BlockHeading:
		return &HeadingBlock{}, nil
	case BlockParagraph:
		return &ParagraphBlock{}, nil
	case BlockCode:
		return &CodeBlock{}, nil
	case BlockVideo:
		return &VideoBlock{}, nil
	case BlockImage:
		return &ImageBlock{}, nil
	case BlockPractice:
		return &PracticeBlock{}, nil
	}
	return nil, fmt.Errorf("unknown block type %q", t)
}

// DecodeBlock разбирает и проверяет полезную нагрузку указанного типа.
func DecodeBlock(t BlockType, data []byte) (BlockPayload, error) {
	p, err := emptyPayload(t)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("decode %s block: %w", t, err)
		}
	}
	p = deref(p)
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func deref(p BlockPayload) BlockPayload {
	switch v := p.(type) {
	case *HeadingBlock:
		return *v
	case *ParagraphBlock:
		return *v
	case *CodeBlock:
		return *v
	case *VideoBlock:
		return *v
	case *ImageBlock:
		return *v
	case *PracticeBlock:
		return *v
	}
	return p
}

// NewContentBlock собирает строку таблицы из типизированного содержимого.
func NewContentBlock(lessonID uint, position int, p BlockPayload) (ContentBlock, error) {
	if err := p.validate(); err != nil {
		return ContentBlock{}, err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return ContentBlock{}, err
	}
	return ContentBlock{
		LessonID: lessonID,
		Type:     p.Kind(),
		Position: position,
		Data:     datatypes.JSON(raw),
	}, nil
}

// Payload возвращает типизированное содержимое блока.
func (b ContentBlock) Payload() (BlockPayload, error) {
	return DecodeBlock(b.Type, b.Data)
}

// Practice возвращает содержимое практического блока.
func (b ContentBlock) Practice() (PracticeBlock, error) {
	if b.Type != BlockPractice {
		return PracticeBlock{}, fmt.Errorf("block %d is %s, not practice", b.ID, b.Type)
	}
	p, err := b.Payload()
	if err != nil {
		return PracticeBlock{}, err
	}
	return p.(PracticeBlock), nil
}

// ForStudent скрывает регулярку проверки у практических блоков.
func (b ContentBlock) ForStudent() ContentBlock {
	if b.Type != BlockPractice {
		return b
	}
	p, err := b.Practice()
	if err != nil {
		return b
	}
	p.ValidationRegex = ""
	raw, err := json.Marshal(p)
	if err != nil {
		return b
	}
	b.Data = datatypes.JSON(raw)
	return b
}
