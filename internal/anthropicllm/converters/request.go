// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package converters translates between genai content and the Anthropic
// Messages API.
package converters

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"google.golang.org/genai"
)

// ContentsToMessages converts a conversation to Anthropic message params.
// Consecutive turns by the same role are merged, as Anthropic requires
// strictly alternating roles.
func ContentsToMessages(contents []*genai.Content) ([]anthropic.MessageParam, error) {
	var messages []anthropic.MessageParam
	for i, content := range contents {
		msg, err := contentToMessage(content)
		if err != nil {
			return nil, fmt.Errorf("content %d: %w", i, err)
		}
		if msg == nil {
			continue
		}
		if n := len(messages); n > 0 && messages[n-1].Role == msg.Role {
			messages[n-1].Content = append(messages[n-1].Content, msg.Content...)
			continue
		}
		messages = append(messages, *msg)
	}
	return messages, nil
}

func contentToMessage(content *genai.Content) (*anthropic.MessageParam, error) {
	if content == nil {
		return nil, nil
	}
	role, err := messageRole(content)
	if err != nil {
		return nil, err
	}

	var blocks []anthropic.ContentBlockParamUnion
	for _, part := range content.Parts {
		block, err := PartToContentBlock(part)
		if err != nil {
			return nil, err
		}
		if block != nil {
			blocks = append(blocks, *block)
		}
	}
	if len(blocks) == 0 {
		return nil, nil
	}
	return &anthropic.MessageParam{Role: role, Content: blocks}, nil
}

// messageRole picks the Anthropic role for a content. Tool results must be
// sent by the user and tool calls by the assistant, whatever the genai role.
func messageRole(content *genai.Content) (anthropic.MessageParamRole, error) {
	for _, part := range content.Parts {
		switch {
		case part == nil:
		case part.FunctionResponse != nil:
			return anthropic.MessageParamRoleUser, nil
		case part.FunctionCall != nil:
			return anthropic.MessageParamRoleAssistant, nil
		}
	}
	switch content.Role {
	case "user":
		return anthropic.MessageParamRoleUser, nil
	case "model", "assistant":
		return anthropic.MessageParamRoleAssistant, nil
	default:
		return "", fmt.Errorf("unsupported role %q", content.Role)
	}
}

// PartToContentBlock converts one genai part. Parts with no Anthropic
// equivalent in a research conversation produce an error; empty parts
// produce nil.
func PartToContentBlock(part *genai.Part) (*anthropic.ContentBlockParamUnion, error) {
	switch {
	case part == nil:
		return nil, nil
	case part.FunctionCall != nil:
		var input any = part.FunctionCall.Args
		if part.FunctionCall.Args == nil {
			input = map[string]any{}
		}
		block := anthropic.NewToolUseBlock(part.FunctionCall.ID, input, part.FunctionCall.Name)
		return &block, nil
	case part.FunctionResponse != nil:
		return toolResultBlock(part.FunctionResponse)
	case part.Thought && len(part.ThoughtSignature) > 0:
		block := anthropic.ContentBlockParamUnion{OfThinking: &anthropic.ThinkingBlockParam{
			Thinking:  part.Text,
			Signature: base64.StdEncoding.EncodeToString(part.ThoughtSignature),
		}}
		return &block, nil
	case part.Thought:
		// Unsigned thoughts cannot be replayed to Anthropic.
		return nil, nil
	case part.Text != "":
		block := anthropic.NewTextBlock(part.Text)
		return &block, nil
	case part.InlineData != nil, part.FileData != nil:
		return nil, fmt.Errorf("binary parts are not supported")
	case part.ExecutableCode != nil, part.CodeExecutionResult != nil:
		return nil, fmt.Errorf("code execution parts are not supported by Anthropic")
	}
	return nil, nil
}

func toolResultBlock(resp *genai.FunctionResponse) (*anthropic.ContentBlockParamUnion, error) {
	var content string
	if resp.Response != nil {
		data, err := json.Marshal(resp.Response)
		if err != nil {
			return nil, fmt.Errorf("marshal result of %s: %w", resp.Name, err)
		}
		content = string(data)
	}
	id := resp.ID
	if id == "" {
		id = resp.Name
	}
	_, failed := resp.Response["error"]
	block := anthropic.NewToolResultBlock(id, content, failed)
	return &block, nil
}

// SystemInstructionToSystem converts a system instruction to text blocks.
func SystemInstructionToSystem(instruction *genai.Content) []anthropic.TextBlockParam {
	if instruction == nil {
		return nil
	}
	var blocks []anthropic.TextBlockParam
	for _, part := range instruction.Parts {
		if part != nil && part.Text != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: part.Text})
		}
	}
	return blocks
}
