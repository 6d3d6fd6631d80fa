//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package corpus

import "context"

// SampleSource supplies the built-in sample documents. It is used when the
// corpus directory contains no documents, so the server can always answer
// questions out of the box.
type SampleSource struct{}

// Load returns the built-in sample documents.
func (SampleSource) Load(_ context.Context) ([]Document, error) {
	return SampleDocuments(), nil
}

// SampleDocuments returns the built-in three-document sample corpus.
func SampleDocuments() []Document {
	return []Document{
		{
			ID: "ai_overview",
			Text: `# AI Overview

Artificial Intelligence (AI) is a branch of computer science that aims to create systems capable of performing tasks that typically require human intelligence. These tasks include learning, reasoning, problem-solving, perception, and language understanding.

## Key Concepts

Machine Learning is a subset of AI that enables systems to learn from data without being explicitly programmed. Deep Learning, in turn, is a subset of machine learning that uses neural networks with multiple layers.

## Applications

AI is used in various fields including healthcare, finance, transportation, and entertainment. Recent advances in large language models have enabled new applications in natural language processing and generation.`,
		},
		{
			ID: "rag_explained",
			Text: `# Retrieval-Augmented Generation (RAG)

RAG is a technique that combines information retrieval with language generation. It allows AI systems to access external knowledge bases to provide more accurate and up-to-date answers.

## How RAG Works

1. Query Processing: The user's question is converted into a search query.
2. Retrieval: Relevant documents are retrieved from a knowledge base using vector similarity.
3. Augmentation: Retrieved context is combined with the original query.
4. Generation: A language model generates an answer based on the augmented context.

## Benefits

RAG improves answer accuracy, reduces hallucinations, and enables access to domain-specific knowledge without retraining the model.`,
		},
		{
			ID: "langgraph_intro",
			Text: `# LangGraph Introduction

LangGraph is a framework for building stateful, multi-actor applications with LLMs. It provides a way to define complex workflows as graphs of nodes and edges.

## Core Concepts

- State: Shared data structure that flows through the graph
- Nodes: Functions that process the state
- Edges: Connections that determine the flow between nodes
- Tools: External functions that nodes can call

## Use Cases

LangGraph is ideal for building agents, chatbots, and complex reasoning systems that require multiple steps and decision points.`,
		},
	}
}
